// Package dump renders a catalog in a human-readable data format.
package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/servo/angle-buildgen/internal/codegen/meta"
)

// Formats lists the supported output formats.
var Formats = []string{"json", "yaml", "toml"}

type catalogView struct {
	Libraries []libraryView `json:"libraries" yaml:"libraries" toml:"libraries"`
}

type libraryView struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Ident    string   `json:"ident" yaml:"ident" toml:"ident"`
	Shared   bool     `json:"shared" yaml:"shared" toml:"shared"`
	Sources  []string `json:"sources" yaml:"sources" toml:"sources"`
	Includes []string `json:"includes" yaml:"includes" toml:"includes"`
	Defines  []string `json:"defines" yaml:"defines" toml:"defines"`
	OSLibs   []string `json:"os_libs" yaml:"os_libs" toml:"os_libs"`
	UseLibs  []string `json:"use_libs" yaml:"use_libs" toml:"use_libs"`
}

func view(cat *meta.Catalog) catalogView {
	v := catalogView{Libraries: make([]libraryView, 0, len(cat.Libraries))}
	for _, lib := range cat.Libraries {
		lv := libraryView{
			Name:     lib.Name,
			Ident:    lib.Ident,
			Shared:   lib.Shared,
			Sources:  nonNil(lib.Sources),
			Includes: nonNil(lib.Includes),
			Defines:  make([]string, 0, len(lib.Defines)),
			OSLibs:   nonNil(lib.OSLibs),
			UseLibs:  nonNil(lib.UseLibs),
		}
		for _, d := range lib.Defines {
			lv.Defines = append(lv.Defines, d.Flag())
		}
		v.Libraries = append(v.Libraries, lv)
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Write renders cat to w. format is one of Formats; "yml" is accepted as
// an alias for yaml.
func Write(w io.Writer, cat *meta.Catalog, format string) error {
	v := view(cat)
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case "yaml", "yml":
		data, err = yaml.Marshal(v)
	case "toml":
		data, err = toml.Marshal(v)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}
