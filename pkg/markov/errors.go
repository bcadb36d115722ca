package markov

import "errors"

var (
	// ErrInvalidOrder is returned when a chain order below 1 is requested.
	ErrInvalidOrder = errors.New("markov: order must be at least 1")
	// ErrInvalidLength is returned for a negative minimum length.
	ErrInvalidLength = errors.New("markov: minimum length must not be negative")
	// ErrInvalidAttempts is returned when the attempt budget is not positive.
	ErrInvalidAttempts = errors.New("markov: max attempts must be positive")
	// ErrNoContinuation is returned when generation reaches a key without
	// followers, or when the chain holds no token that can start a text.
	ErrNoContinuation = errors.New("markov: no continuation for key")
)
