// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload marks a response body that could not be decoded into
// the expected item shape. It is distinct from transport failures so callers
// can log payload context before retrying.
var ErrMalformedPayload = errors.New("malformed payload")

// ErrPageFailed is returned when a single page could not be fetched after
// the retry budget for that page was exhausted.
type ErrPageFailed struct {
	Page int
	Err  error
}

func (e *ErrPageFailed) Error() string {
	return fmt.Sprintf("page %d failed after retries: %v", e.Page, e.Err)
}

func (e *ErrPageFailed) Unwrap() error {
	return e.Err
}
