package generator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/servo/angle-buildgen/internal/codegen/generator/rust"
	"github.com/servo/angle-buildgen/internal/codegen/meta"
	"github.com/servo/angle-buildgen/internal/codegen/mozbuild"
	"github.com/servo/angle-buildgen/internal/codegen/normalize"
	"github.com/servo/angle-buildgen/internal/codegen/scanner"
)

// ErrStale is returned by Check when the artifact on disk differs from what
// Generate would write.
var ErrStale = errors.New("generated build data is out of date")

// Config locates the ANGLE tree and the artifact. Root and relative Output
// paths are taken relative to Repo.
type Config struct {
	Repo      string
	Root      string
	Output    string
	Lang      string
	Normalize normalize.Options
}

type Generator struct {
	cfg    Config
	logger *slog.Logger
	tracer mozbuild.Tracer
}

type LanguageGenerator func(logger *slog.Logger, w io.Writer, cat *meta.Catalog) error

var generators = map[string]LanguageGenerator{
	"rust": rust.Generate,
}

// Languages lists the supported output languages.
func Languages() []string {
	var out []string
	for k := range generators {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New returns a generator. tracer may be nil.
func New(cfg Config, logger *slog.Logger, tracer mozbuild.Tracer) *Generator {
	if cfg.Lang == "" {
		cfg.Lang = "rust"
	}
	return &Generator{
		cfg:    cfg,
		logger: logger,
		tracer: tracer,
	}
}

func (g *Generator) rootDir() string {
	return filepath.Join(g.cfg.Repo, g.cfg.Root)
}

// OutputPath returns where the artifact is written.
func (g *Generator) OutputPath() string {
	if filepath.IsAbs(g.cfg.Output) {
		return g.cfg.Output
	}
	return filepath.Join(g.cfg.Repo, g.cfg.Output)
}

// ScanAll evaluates every discovered target, sorted by name.
func (g *Generator) ScanAll() ([]*mozbuild.Accumulator, error) {
	root := g.rootDir()
	g.logger.Info("Scanning manifests", "root", root)

	names, err := scanner.DiscoverTargets(root)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Discovered targets", "count", len(names))

	interp := mozbuild.NewInterpreter(g.logger, g.tracer)
	sc := scanner.New(g.cfg.Repo, root, interp, g.logger)

	accs := make([]*mozbuild.Accumulator, 0, len(names))
	for _, name := range names {
		g.logger.Debug("Scanning target", "target", name)
		acc, err := sc.ScanTarget(name)
		if err != nil {
			return nil, fmt.Errorf("scan target %s: %w", name, err)
		}
		g.logger.Info("Scanned target",
			"target", name,
			"sources", len(acc.Sources.Items),
			"defines", acc.Defines.Len(),
			"shared", acc.Shared)
		accs = append(accs, acc)
	}
	return accs, nil
}

// Catalog scans and normalizes every target.
func (g *Generator) Catalog() (*meta.Catalog, error) {
	accs, err := g.ScanAll()
	if err != nil {
		return nil, err
	}
	return normalize.New(g.cfg.Normalize, g.logger).Catalog(accs)
}

// Render serializes cat in the configured language.
func (g *Generator) Render(cat *meta.Catalog) ([]byte, error) {
	gen, ok := generators[g.cfg.Lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language '%s' (supported: %v)", g.cfg.Lang, Languages())
	}
	var buf bytes.Buffer
	if err := gen(g.logger, &buf, cat); err != nil {
		return nil, fmt.Errorf("render %s: %w", g.cfg.Lang, err)
	}
	return buf.Bytes(), nil
}

// Generate builds the catalog and replaces the artifact with it.
func (g *Generator) Generate() error {
	g.logger.Info("Generating build data", "language", g.cfg.Lang)

	cat, err := g.Catalog()
	if err != nil {
		return err
	}
	out, err := g.Render(cat)
	if err != nil {
		return err
	}

	dest := g.OutputPath()
	if err := writeFileAtomic(dest, out); err != nil {
		return err
	}
	g.logger.Info("Build data generation complete", "libraries", len(cat.Libraries), "output", dest)
	return nil
}

// Check renders the catalog in memory and compares it with the artifact on
// disk. On mismatch it returns a unified diff and ErrStale. A missing artifact
// is treated as empty.
func (g *Generator) Check() (string, error) {
	cat, err := g.Catalog()
	if err != nil {
		return "", err
	}
	want, err := g.Render(cat)
	if err != nil {
		return "", err
	}

	dest := g.OutputPath()
	have, err := os.ReadFile(dest)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", dest, err)
	}
	if bytes.Equal(have, want) {
		g.logger.Info("Build data is up to date", "output", dest)
		return "", nil
	}

	edits := myers.ComputeEdits(span.URIFromPath(dest), string(have), string(want))
	diff := fmt.Sprint(gotextdiff.ToUnified(dest, dest, string(have), edits))
	return diff, fmt.Errorf("%w: %s", ErrStale, dest)
}

// writeFileAtomic writes data to a temporary file next to dest and renames it
// over dest, so readers never observe a partial artifact.
func writeFileAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("rename %s: %w", dest, err)
	}
	return nil
}
