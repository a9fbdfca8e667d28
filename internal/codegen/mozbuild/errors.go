package mozbuild

import "errors"

var (
	// ErrMissingManifest is returned when the expected manifest file does not
	// exist.
	ErrMissingManifest = errors.New("missing manifest")
	// ErrSyntax is returned for manifests that cannot be parsed or that use
	// constructs outside the dialect.
	ErrSyntax = errors.New("manifest syntax error")
	// ErrEvaluation is returned for unknown names, unknown CONFIG keys and
	// type mismatches.
	ErrEvaluation = errors.New("manifest evaluation error")
)
