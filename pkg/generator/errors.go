package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/germanamz/herald/pkg/apiclient"
)

// ConfigError reports invalid construction arguments.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// TransportError reports a non-2xx response from a generation API.
// It is never retried.
type TransportError struct {
	Op         string // Exchange that failed, e.g. "chat completion".
	StatusCode int
	Status     string // Reason phrase, e.g. "Bad Gateway".
	Body       string
	RetryAfter time.Duration
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%d %s: %s failed", e.StatusCode, e.Status, e.Op)
}

// EmptyGenerationError reports a well-formed response without any text.
type EmptyGenerationError struct {
	Backend string
}

func (e *EmptyGenerationError) Error() string {
	return "no content received from " + e.Backend
}

// RetryExhaustedError reports that every attempt produced an over-long post.
type RetryExhaustedError struct {
	Limit    int
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("failed to generate post within %d characters after %d attempts", e.Limit, e.Attempts)
}

// WrapTransport converts an apiclient status error into a TransportError.
// Other errors, such as network failures, are wrapped with op.
func WrapTransport(op string, err error) error {
	var statusErr *apiclient.StatusError
	if errors.As(err, &statusErr) {
		return &TransportError{
			Op:         op,
			StatusCode: statusErr.StatusCode,
			Status:     statusErr.StatusText(),
			Body:       statusErr.Body,
			RetryAfter: statusErr.RetryAfter,
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
