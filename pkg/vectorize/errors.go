package vectorize

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput is returned for a malformed frame, image or mask set.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelUnavailable is returned when no segmenter can serve the request.
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInvalidConfig    = errors.New("invalid vectorize config")
)

// withKind tags err with kind. Both match errors.Is on the result.
func withKind(kind, err error) error {
	return errors.WithStack(fmt.Errorf("%w: %w", kind, err))
}
