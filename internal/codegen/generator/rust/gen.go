package rust

import (
	"fmt"
	"io"
	"log/slog"
	"text/template"
	"unicode/utf8"

	"github.com/servo/angle-buildgen/internal/codegen/meta"
)

const buildDataTemplate = `{{.Header}}
#![allow(non_camel_case_types, non_upper_case_globals)]

pub struct Data {
    pub lib: &'static str,
    pub sources: &'static [&'static str],
    pub includes: &'static [&'static str],
    pub defines: &'static [(&'static str, Option<&'static str>)],
    pub os_libs: &'static [&'static str],
    pub use_libs: &'static [Libs],
    pub shared: bool,
}

#[derive(Clone, Copy, Debug, PartialEq, Eq, Hash)]
pub enum Libs {
{{- range .Libraries}}
    {{.Ident}},
{{- end}}
}

impl Libs {
    pub fn to_data(&self) -> Data {
        match *self {
{{- range .Libraries}}
            Libs::{{.Ident}} => {{.Ident}},
{{- end}}
        }
    }
}
{{range .Libraries}}
pub const {{.Ident}}: Data = Data {
    lib: {{.Lib}},
    sources: {{template "items" .Sources}},
    includes: {{template "items" .Includes}},
    defines: {{template "items" .Defines}},
    os_libs: {{template "items" .OSLibs}},
    use_libs: {{template "items" .UseLibs}},
    shared: {{.Shared}},
};
{{end}}
{{- define "items"}}&[{{if .}}
{{- range .}}
        {{.}},
{{- end}}
    ]{{else}}]{{end}}{{end}}`

var buildDataTmpl = template.Must(template.New("build_data").Parse(buildDataTemplate))

// rustLibrary is a catalog record with every value already rendered as Rust
// source.
type rustLibrary struct {
	Ident    string
	Lib      string
	Sources  []string
	Includes []string
	Defines  []string
	OSLibs   []string
	UseLibs  []string
	Shared   bool
}

func writeFileHeaderRust() string {
	return `// Auto-generated by angle-buildgen. DO NOT EDIT.
// Regenerate with "angle-buildgen generate".
`
}

// Generate writes the catalog as a Rust module to w.
func Generate(logger *slog.Logger, w io.Writer, cat *meta.Catalog) error {
	libs := make([]rustLibrary, 0, len(cat.Libraries))
	for _, lib := range cat.Libraries {
		rl, err := toRust(lib)
		if err != nil {
			return err
		}
		libs = append(libs, rl)
	}

	data := struct {
		Header    string
		Libraries []rustLibrary
	}{
		Header:    writeFileHeaderRust(),
		Libraries: libs,
	}
	if err := buildDataTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	logger.Debug("Rendered Rust build data", "libraries", len(libs))
	return nil
}

func toRust(lib meta.Library) (rustLibrary, error) {
	rl := rustLibrary{Ident: lib.Ident, Shared: lib.Shared}

	strs := []string{lib.Name}
	strs = append(strs, lib.Sources...)
	strs = append(strs, lib.Includes...)
	strs = append(strs, lib.OSLibs...)
	for _, d := range lib.Defines {
		strs = append(strs, d.Name)
		if d.Value != nil {
			strs = append(strs, *d.Value)
		}
	}
	for _, s := range strs {
		if !utf8.ValidString(s) {
			return rustLibrary{}, fmt.Errorf("library %s: %q is not valid UTF-8", lib.Name, s)
		}
	}

	rl.Lib = Quote(lib.Name)
	rl.Sources = quoteAll(lib.Sources)
	rl.Includes = quoteAll(lib.Includes)
	rl.OSLibs = quoteAll(lib.OSLibs)
	for _, d := range lib.Defines {
		value := "None"
		if d.Value != nil {
			value = "Some(" + Quote(*d.Value) + ")"
		}
		rl.Defines = append(rl.Defines, "("+Quote(d.Name)+", "+value+")")
	}
	for _, ident := range lib.UseLibs {
		rl.UseLibs = append(rl.UseLibs, "Libs::"+ident)
	}
	return rl, nil
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = Quote(s)
	}
	return out
}
