package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError is the failure reported by a Client. Status is zero when no
// HTTP response was received.
type NetworkError struct {
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("Error %d: %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("Error %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("network: %v", e.Err)
	default:
		return "network: " + e.Message
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether repeating the same request may succeed.
func (e *NetworkError) IsRetryable() bool {
	if e.Status == 0 {
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	}
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func asNetworkError(err error) *NetworkError {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne
	}
	return &NetworkError{Err: err}
}
