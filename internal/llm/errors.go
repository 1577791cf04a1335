package llm

import (
	"errors"
	"fmt"
)

// ErrProvider is the generic completion failure. Every error returned by a
// Provider wraps it, so callers can blanket-match with errors.Is.
var ErrProvider = errors.New("completion provider failed")

// ErrTimeout marks exhaustion of retries on timeout-classified failures.
// It wraps ErrProvider: errors.Is(ErrTimeout, ErrProvider) is true.
var ErrTimeout = fmt.Errorf("%w: timed out", ErrProvider)
