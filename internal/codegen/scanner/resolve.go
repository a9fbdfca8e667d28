package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/servo/angle-buildgen/internal/codegen/mozbuild"
)

var (
	// ErrMalformedReference is returned for DIRS entries that are not of the
	// form "../<dir>".
	ErrMalformedReference = errors.New("malformed directory reference")
	// ErrReferenceCycle is returned when a DIRS chain leads back to a manifest
	// that is still being evaluated.
	ErrReferenceCycle = errors.New("directory reference cycle")
)

// referencePrefix is the only accepted form of a DIRS entry.
const referencePrefix = "../"

// Scanner evaluates target manifests and merges their directory references.
type Scanner struct {
	repo   string
	root   string
	interp *mozbuild.Interpreter
	logger *slog.Logger
}

// New returns a scanner for the ANGLE tree at root. SRCDIR values are made
// relative to repo so that the catalog does not depend on where the
// repository is checked out.
func New(repo, root string, interp *mozbuild.Interpreter, logger *slog.Logger) *Scanner {
	return &Scanner{repo: repo, root: root, interp: interp, logger: logger}
}

// ScanTarget builds the accumulator for one discovered target: the shared
// prelude first, then the target's own manifest, each followed by its
// directory references.
func (s *Scanner) ScanTarget(name string) (*mozbuild.Accumulator, error) {
	acc := mozbuild.NewAccumulator(name)
	var chain []string

	prelude := filepath.Join(s.root, mozbuild.ManifestName+mozbuild.PreludeSuffix)
	switch _, err := os.Stat(prelude); {
	case err == nil:
		if err := s.parseDir(s.root, mozbuild.PreludeSuffix, acc, chain); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("No shared prelude", "path", prelude)
	default:
		return nil, fmt.Errorf("stat prelude %s: %w", prelude, err)
	}

	dir := filepath.Join(s.root, TargetsDir, name)
	if err := s.parseDir(dir, "", acc, chain); err != nil {
		return nil, err
	}
	return acc, nil
}

// parseDir evaluates <dir>/moz.build<suffix> into acc and then recurses into
// each of its DIRS entries with the same accumulator. chain holds the
// manifests currently being evaluated.
func (s *Scanner) parseDir(dir, suffix string, acc *mozbuild.Accumulator, chain []string) error {
	manifestPath := filepath.Join(dir, mozbuild.ManifestName+suffix)
	for _, p := range chain {
		if p == manifestPath {
			return fmt.Errorf("%w: %s", ErrReferenceCycle, strings.Join(append(chain, manifestPath), " -> "))
		}
	}
	chain = append(chain, manifestPath)

	m, err := mozbuild.ReadFile(manifestPath)
	if err != nil {
		return err
	}

	env := mozbuild.NewEnv(acc, s.srcDir(dir))
	if err := s.interp.Exec(m, env); err != nil {
		return err
	}

	for _, ref := range env.Dirs() {
		sub, err := s.resolve(manifestPath, ref)
		if err != nil {
			return err
		}
		s.logger.Debug("Merging directory reference", "target", acc.Name, "from", manifestPath, "dir", sub)
		if err := s.parseDir(sub, "", acc, chain); err != nil {
			return err
		}
	}
	return nil
}

// resolve maps a DIRS entry onto <root>/targets/<dir>.
func (s *Scanner) resolve(from string, ref mozbuild.Value) (string, error) {
	str, ok := ref.(mozbuild.String)
	if !ok {
		return "", fmt.Errorf("%w: %s: expected a string, got %s", ErrMalformedReference, from, ref.Type())
	}
	rest, ok := strings.CutPrefix(string(str), referencePrefix)
	if !ok || rest == "" || strings.HasPrefix(rest, "/") {
		return "", fmt.Errorf("%w: %s: %q must start with %q", ErrMalformedReference, from, string(str), referencePrefix)
	}
	if path.Clean(rest) == "." {
		return "", fmt.Errorf("%w: %s: %q does not name a directory", ErrMalformedReference, from, string(str))
	}
	for _, seg := range strings.Split(rest, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %s: %q must contain exactly one %q segment", ErrMalformedReference, from, string(str), "..")
		}
	}
	return filepath.Join(s.root, TargetsDir, filepath.FromSlash(path.Clean(rest))), nil
}

func (s *Scanner) srcDir(dir string) string {
	rel, err := filepath.Rel(s.repo, dir)
	if err != nil {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}
