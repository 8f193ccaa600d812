package llm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownAction is returned for a prompt type outside the allow-list.
	ErrUnknownAction = errors.New("unknown prompt type")
	// ErrRateLimited matches any *RateLimitError.
	ErrRateLimited = errors.New("rate limited")
)

// RateLimitError reports that the caller must wait before retrying.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	secs := int(e.RetryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("Too many requests. Please wait %d seconds and try again.", secs)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// ServiceError is a generic failure from the generation service. Message is
// shown to the user as is.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string { return e.Message }
