package meta

// Catalog holds the finalized build data of every discovered target, in
// discovery order. It is shared between the generator orchestrator and the
// language-specific emitters.
type Catalog struct {
	Libraries []Library `json:"libraries"`
}

// Library is the normalized record of one target.
type Library struct {
	// Name is the target directory name, e.g. "libGLESv2".
	Name string `json:"name"`
	// Ident is the enum variant derived from Name, e.g. "GLESv2".
	Ident    string   `json:"ident"`
	Sources  []string `json:"sources"`
	Includes []string `json:"includes"`
	// Defines keeps manifest assignment order.
	Defines []Define `json:"defines"`
	OSLibs  []string `json:"osLibs"`
	// UseLibs holds enum variants, not target names.
	UseLibs []string `json:"useLibs"`
	Shared  bool     `json:"shared"`
}

// Define is a preprocessor macro. A nil Value means defined with no value.
type Define struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

// Flag renders the define as NAME or NAME=VALUE.
func (d Define) Flag() string {
	if d.Value == nil {
		return d.Name
	}
	return d.Name + "=" + *d.Value
}

// Lookup returns the library with the given enum variant.
func (c *Catalog) Lookup(ident string) (*Library, bool) {
	for i := range c.Libraries {
		if c.Libraries[i].Ident == ident {
			return &c.Libraries[i], true
		}
	}
	return nil, false
}
