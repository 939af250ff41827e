package agent

import (
	"errors"
	"fmt"

	"github.com/storepilot/storepilot/internal/provider"
)

// ErrMaxIterations marks a session that hit its iteration bound.
var ErrMaxIterations = errors.New("max iterations exceeded")

// SessionError is the terminal failure of one Chat call. It carries the
// transcript produced so far so callers can inspect what was attempted.
type SessionError struct {
	Err        error
	Iterations int
	Transcript []provider.Message
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session aborted after %d iterations: %v", e.Iterations, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
