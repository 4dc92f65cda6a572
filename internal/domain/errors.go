package domain

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidArchive  = errors.New("invalid archive")
	ErrConfig          = errors.New("invalid configuration")
	ErrIO              = errors.New("i/o failure")
	ErrMissingArtifact = errors.New("missing artifact")
)

// IsClientError reports whether err should be surfaced as a bad request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidArchive) ||
		errors.Is(err, ErrConfig)
}
