// Package apperr defines the error taxonomy shared by the fetcher, the
// PubChem client and the outer surfaces.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound marks an upstream response whose status was intercepted as
// "no such record". Client operations turn it into an absent result.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput marks a request rejected before any upstream call.
var ErrInvalidInput = errors.New("invalid input")

// AccessError is a non-success upstream status that was not intercepted.
type AccessError struct {
	StatusCode int
	URL        string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("upstream access failed: status %d for %s", e.StatusCode, e.URL)
}

// StatusCode returns the upstream status carried by an AccessError anywhere
// in err's chain.
func StatusCode(err error) (int, bool) {
	var ae *AccessError
	if errors.As(err, &ae) {
		return ae.StatusCode, true
	}
	return 0, false
}
