package generator_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servo/angle-buildgen/internal/codegen/generator"
	"github.com/servo/angle-buildgen/internal/codegen/meta"
	"github.com/servo/angle-buildgen/internal/codegen/normalize"
)

func strPtr(s string) *string { return &s }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// copyTree copies testdata into a temporary repository so tests can write
// the artifact next to it.
func copyTree(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	err := filepath.WalkDir("testdata", func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("testdata", p)
		if err != nil {
			return err
		}
		dst := filepath.Join(repo, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
	require.NoError(t, err)
	return repo
}

func newGenerator(repo string) *generator.Generator {
	return generator.New(generator.Config{
		Repo:      repo,
		Root:      "gfx/angle",
		Output:    "build_data.rs",
		Normalize: normalize.DefaultOptions(),
	}, discard(), nil)
}

var preludeIncludes = []string{
	"/gfx/angle/checkout/include/",
	"/gfx/angle/checkout/src/",
}

var commonIncludes = []string{
	"../../checkout/include/",
	"/gfx/angle/checkout/include/",
	"/gfx/angle/checkout/src/",
}

var preludeDefines = []meta.Define{
	{Name: "ANGLE_ENABLE_ESSL"},
	{Name: "ANGLE_ENABLE_GLSL"},
}

func TestCatalog(t *testing.T) {
	cat, err := newGenerator("testdata").Catalog()
	require.NoError(t, err)

	want := &meta.Catalog{Libraries: []meta.Library{
		{
			Name:     "angle_common",
			Ident:    "ANGLE_COMMON",
			Sources:  []string{"gfx/angle/targets/angle_common/../../checkout/src/common/angleutils.cpp"},
			Includes: commonIncludes,
			Defines:  preludeDefines,
		},
		{
			Name:  "libANGLE",
			Ident: "ANGLE",
			Sources: []string{
				"../../checkout/src/libANGLE/Context.cpp",
				"gfx/angle/targets/angle_common/../../checkout/src/common/angleutils.cpp",
			},
			Includes: commonIncludes,
			Defines:  preludeDefines,
			UseLibs:  []string{"TRANSLATOR"},
		},
		{
			Name:     "libGLESv2",
			Ident:    "GLESv2",
			Sources:  []string{"gfx/angle/targets/libGLESv2/entry_points.cpp"},
			Includes: preludeIncludes,
			Defines: []meta.Define{
				{Name: "ANGLE_ENABLE_ESSL", Value: strPtr("2")},
				{Name: "ANGLE_ENABLE_GLSL"},
				{Name: "LIBGLESV2_IMPLEMENTATION"},
				{Name: "GL_APICALL", Value: strPtr("")},
			},
			OSLibs:  []string{"dl"},
			UseLibs: []string{"ANGLE"},
			Shared:  true,
		},
		{
			Name:  "translator",
			Ident: "TRANSLATOR",
			Sources: []string{
				"../../checkout/src/compiler/translator/Compiler.cpp",
				"../../checkout/src/compiler/translator/Intel.cpp",
			},
			Includes: preludeIncludes,
			Defines: []meta.Define{
				{Name: "ANGLE_ENABLE_ESSL"},
				{Name: "ANGLE_ENABLE_GLSL"},
				{Name: "ANGLE_TRANSLATOR_VERSION", Value: strPtr("3")},
			},
			UseLibs: []string{"ANGLE_COMMON"},
		},
	}}

	if diff := cmp.Diff(want, cat, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogZeroNormalizeOptions(t *testing.T) {
	want, err := newGenerator("testdata").Catalog()
	require.NoError(t, err)

	got, err := generator.New(generator.Config{Repo: "testdata", Root: "gfx/angle"}, discard(), nil).Catalog()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateWritesArtifact(t *testing.T) {
	repo := copyTree(t)
	gen := newGenerator(repo)

	require.NoError(t, gen.Generate())
	first, err := os.ReadFile(filepath.Join(repo, "build_data.rs"))
	require.NoError(t, err)

	out := string(first)
	assert.True(t, strings.HasPrefix(out, "// Auto-generated by angle-buildgen"))
	assert.Contains(t, out, "pub enum Libs {\n    ANGLE_COMMON,\n    ANGLE,\n    GLESv2,\n    TRANSLATOR,\n}")
	assert.Contains(t, out, "Libs::GLESv2 => GLESv2,")
	assert.Contains(t, out, "pub const GLESv2: Data = Data {\n    lib: \"libGLESv2\",")
	assert.Contains(t, out, "(\"GL_APICALL\", Some(\"\")),")
	assert.Contains(t, out, "use_libs: &[\n        Libs::ANGLE,\n    ],")
	assert.Contains(t, out, "os_libs: &[],")
	assert.NotContains(t, out, "system_utils_")
	assert.NotContains(t, out, "mozglue")
	assert.NotContains(t, out, "ANGLE_UNUSED")

	require.NoError(t, gen.Generate())
	second, err := os.ReadFile(filepath.Join(repo, "build_data.rs"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "regeneration must be byte-identical")

	entries, err := os.ReadDir(repo)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".build_data.rs."), "temporary file %s left behind", e.Name())
	}
}

func TestCheck(t *testing.T) {
	repo := copyTree(t)
	gen := newGenerator(repo)

	diff, err := gen.Check()
	require.ErrorIs(t, err, generator.ErrStale)
	assert.Contains(t, diff, "+pub enum Libs {")

	require.NoError(t, gen.Generate())
	diff, err = gen.Check()
	require.NoError(t, err)
	assert.Empty(t, diff)

	manifest := filepath.Join(repo, "gfx", "angle", "targets", "libANGLE", "moz.build")
	f, err := os.OpenFile(manifest, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("SOURCES += [\"../../checkout/src/libANGLE/State.cpp\"]\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	diff, err = gen.Check()
	require.ErrorIs(t, err, generator.ErrStale)
	assert.Contains(t, diff, "+        \"../../checkout/src/libANGLE/State.cpp\",")
}

func TestGenerateFailsWithoutWriting(t *testing.T) {
	repo := copyTree(t)
	manifest := filepath.Join(repo, "gfx", "angle", "targets", "libANGLE", "moz.build")
	require.NoError(t, os.WriteFile(manifest, []byte("DIRS += [\"angle_common\"]\n"), 0o644))

	err := newGenerator(repo).Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "libANGLE")

	_, statErr := os.Stat(filepath.Join(repo, "build_data.rs"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUnsupportedLanguage(t *testing.T) {
	gen := generator.New(generator.Config{Repo: "testdata", Root: "gfx/angle", Lang: "cobol"}, discard(), nil)
	_, err := gen.Render(&meta.Catalog{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supported: [rust]")
}
