// Package normalize turns evaluated target accumulators into the finalized,
// deterministic catalog records.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/servo/angle-buildgen/internal/codegen/common"
	"github.com/servo/angle-buildgen/internal/codegen/meta"
	"github.com/servo/angle-buildgen/internal/codegen/mozbuild"
)

var (
	// ErrInvalidIdentifier is returned when a library name does not map onto
	// a valid enum variant.
	ErrInvalidIdentifier = errors.New("invalid library identifier")
	// ErrIdentifierCollision is returned when two targets map onto the same
	// enum variant.
	ErrIdentifierCollision = errors.New("library identifier collision")
	// ErrDanglingReference is returned when USE_LIBS names a library that is
	// not part of the catalog.
	ErrDanglingReference = errors.New("dangling library reference")
)

// DefaultSourceDenyList holds platform-specific source name fragments. The
// downstream build adds the matching files back per host OS.
var DefaultSourceDenyList = []string{
	"system_utils_apple",
	"system_utils_linux",
	"system_utils_mac",
	"system_utils_posix",
	"system_utils_win",
}

// DefaultLibraryDenyList holds USE_LIBS fragments of Gecko libraries that
// are not part of the portable build.
var DefaultLibraryDenyList = []string{
	"mozglue",
	"mozalloc",
	"zlib",
}

// Options configures the filters.
type Options struct {
	DenySources   []string
	DenyLibraries []string
}

// DefaultOptions returns the fixed deny-lists.
func DefaultOptions() Options {
	return Options{
		DenySources:   append([]string(nil), DefaultSourceDenyList...),
		DenyLibraries: append([]string(nil), DefaultLibraryDenyList...),
	}
}

// Normalizer finalizes accumulators.
type Normalizer struct {
	opts   Options
	logger *slog.Logger
}

// New returns a normalizer. A nil deny-list falls back to its default; an
// empty non-nil list disables that filter.
func New(opts Options, logger *slog.Logger) *Normalizer {
	defaults := DefaultOptions()
	if opts.DenySources == nil {
		opts.DenySources = defaults.DenySources
	}
	if opts.DenyLibraries == nil {
		opts.DenyLibraries = defaults.DenyLibraries
	}
	return &Normalizer{opts: opts, logger: logger}
}

// Catalog finalizes every accumulator. The order of accs is the catalog
// order. Identifier problems are reported before any record is built.
func (n *Normalizer) Catalog(accs []*mozbuild.Accumulator) (*meta.Catalog, error) {
	known := make(map[string]string, len(accs))
	for _, acc := range accs {
		ident, err := identFor(acc.Name)
		if err != nil {
			return nil, err
		}
		if other, ok := known[ident]; ok {
			return nil, fmt.Errorf("%w: %q and %q both map to %s", ErrIdentifierCollision, other, acc.Name, ident)
		}
		known[ident] = acc.Name
	}

	cat := &meta.Catalog{Libraries: make([]meta.Library, 0, len(accs))}
	for _, acc := range accs {
		lib, err := n.Library(acc, known)
		if err != nil {
			return nil, err
		}
		cat.Libraries = append(cat.Libraries, lib)
	}
	return cat, nil
}

// Library finalizes one accumulator. known maps every catalog enum variant
// to its target name and is used to reject dangling USE_LIBS entries.
func (n *Normalizer) Library(acc *mozbuild.Accumulator, known map[string]string) (meta.Library, error) {
	ident, err := identFor(acc.Name)
	if err != nil {
		return meta.Library{}, err
	}
	lib := meta.Library{Name: acc.Name, Ident: ident, Shared: acc.Shared}

	sources, err := stringItems(acc.Name, mozbuild.BindSources, acc.Sources)
	if err != nil {
		return meta.Library{}, err
	}
	var kept []string
	for _, src := range sources {
		if common.ContainsAny(src, n.opts.DenySources) {
			n.logger.Debug("Dropping platform-specific source", "target", acc.Name, "source", src)
			continue
		}
		kept = append(kept, src)
	}
	lib.Sources = common.SortedUnique(kept)

	includes, err := stringItems(acc.Name, mozbuild.BindIncludes, acc.Includes)
	if err != nil {
		return meta.Library{}, err
	}
	lib.Includes = common.SortedUnique(includes)

	osLibs, err := stringItems(acc.Name, mozbuild.BindOSLibs, acc.OSLibs)
	if err != nil {
		return meta.Library{}, err
	}
	lib.OSLibs = common.SortedUnique(osLibs)

	useLibs, err := stringItems(acc.Name, mozbuild.BindUseLibs, acc.UseLibs)
	if err != nil {
		return meta.Library{}, err
	}
	var refs []string
	for _, name := range useLibs {
		if common.ContainsAny(name, n.opts.DenyLibraries) {
			n.logger.Debug("Dropping unwanted library dependency", "target", acc.Name, "library", name)
			continue
		}
		ref := common.LibraryIdent(name)
		if known[ref] != name {
			return meta.Library{}, fmt.Errorf("%w: %s uses %q which is not a discovered target", ErrDanglingReference, acc.Name, name)
		}
		refs = append(refs, ref)
	}
	lib.UseLibs = common.SortedUnique(refs)

	lib.Defines, err = defines(acc.Name, acc.Defines)
	if err != nil {
		return meta.Library{}, err
	}

	n.logger.Debug("Normalized library",
		"target", acc.Name,
		"ident", ident,
		"sources", len(lib.Sources),
		"includes", len(lib.Includes),
		"defines", len(lib.Defines),
		"useLibs", len(lib.UseLibs))
	return lib, nil
}

func identFor(name string) (string, error) {
	ident := common.LibraryIdent(name)
	if !common.IsIdent(ident) {
		return "", fmt.Errorf("%w: %q maps to %q", ErrInvalidIdentifier, name, ident)
	}
	return ident, nil
}

func stringItems(target, binding string, l *mozbuild.List) ([]string, error) {
	out := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		s, ok := it.(mozbuild.String)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s entry %s is a %s, not a string", mozbuild.ErrEvaluation, target, binding, mozbuild.Repr(it), it.Type())
		}
		out = append(out, string(s))
	}
	return out, nil
}

// defines converts DEFINES in assignment order. True defines the macro with
// no value; False and None leave it undefined.
func defines(target string, d *mozbuild.Dict) ([]meta.Define, error) {
	var out []meta.Define
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		def := meta.Define{Name: k}
		switch x := v.(type) {
		case mozbuild.Bool:
			if !x {
				continue
			}
		case mozbuild.NoneValue:
			continue
		case mozbuild.String:
			s := string(x)
			def.Value = &s
		case mozbuild.Int:
			s := strconv.FormatInt(int64(x), 10)
			def.Value = &s
		default:
			return nil, fmt.Errorf("%w: %s: DEFINES[%q] is a %s", mozbuild.ErrEvaluation, target, k, v.Type())
		}
		out = append(out, def)
	}
	return out, nil
}
