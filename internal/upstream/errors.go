package upstream

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is wrapped by UpstreamError when the upstream reports 404.
var ErrNotFound = errors.New("upstream resource not found")

// UpstreamError reports a failed outbound call: transport error, timeout or non-2xx status.
type UpstreamError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Endpoint, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err carries an upstream 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
