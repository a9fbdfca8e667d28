package cmd

import (
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/servo/angle-buildgen/internal/codegen/generator"
	"github.com/servo/angle-buildgen/internal/codegen/mozbuild"
	"github.com/servo/angle-buildgen/internal/codegen/normalize"
)

// Vars are the interpolation variables referenced by flag defaults.
func Vars() kong.Vars {
	return kong.Vars{
		"deny_sources":   strings.Join(normalize.DefaultSourceDenyList, ","),
		"deny_libraries": strings.Join(normalize.DefaultLibraryDenyList, ","),
		"languages":      strings.Join(generator.Languages(), ","),
	}
}

// Tree holds the flags shared by every command that reads the manifests.
type Tree struct {
	Repo       string   `help:"Repository checkout containing the ANGLE tree. The default expects the tool to run from the checkout root" default:"." env:"ANGLE_BUILDGEN_REPO"`
	Root       string   `help:"ANGLE tree, relative to --repo" default:"gfx/angle" env:"ANGLE_BUILDGEN_ROOT"`
	DenySource []string `help:"Source path fragments to drop from every library" default:"${deny_sources}" env:"ANGLE_BUILDGEN_DENY_SOURCE"`
	DenyLib    []string `help:"USE_LIBS fragments to drop from every library" default:"${deny_libraries}" env:"ANGLE_BUILDGEN_DENY_LIB"`
}

// Output selects the artifact.
type Output struct {
	Output string `help:"Generated file, relative to --repo unless absolute" default:"build_data.rs" env:"ANGLE_BUILDGEN_OUTPUT"`
	Lang   string `help:"Output language" default:"rust" enum:"${languages}" env:"ANGLE_BUILDGEN_LANG"`
}

func (t Tree) generator(out Output, logger *slog.Logger, tracer mozbuild.Tracer) *generator.Generator {
	return generator.New(generator.Config{
		Repo:   t.Repo,
		Root:   t.Root,
		Output: out.Output,
		Lang:   out.Lang,
		Normalize: normalize.Options{
			DenySources:   t.DenySource,
			DenyLibraries: t.DenyLib,
		},
	}, logger, tracer)
}
