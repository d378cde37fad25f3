package transfer

import (
	"errors"
	"fmt"
)

// Phase is how far an attended transfer got.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseOriginalHeld    Phase = "original_held"
	PhaseConsultDialed   Phase = "consult_dialed"
	PhaseConsultBridged  Phase = "consult_bridged"
	PhaseOriginalResumed Phase = "original_resumed"
	PhaseComplete        Phase = "complete"
	// PhaseFailed is absorbing.
	PhaseFailed Phase = "failed"
)

// Session is the in-memory state of one orchestration run. It is never
// persisted.
type Session struct {
	ConferenceID   string `json:"conference_id"`
	OriginalCallID string `json:"original_call_id"`
	ConsultCallID  string `json:"consult_call_id,omitempty"`
	Phase          Phase  `json:"phase"`
}

// Error reports a failed transfer.
//
// Reached is the last phase completed before the failure and Attempted the
// transition that failed. Compensated is true when the original participant
// was taken off hold again. CompensationErr is set when that resume failed
// too, leaving the original on hold.
type Error struct {
	Session   Session
	Reached   Phase
	Attempted Phase

	Compensated     bool
	CompensationErr error

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("transfer: %s failed after %s: %v", e.Attempted, e.Reached, e.Err)
	if e.CompensationErr != nil {
		msg += fmt.Sprintf(" (resume original failed: %v)", e.CompensationErr)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	out := []error{e.Err}
	if e.CompensationErr != nil {
		out = append(out, e.CompensationErr)
	}
	return out
}

// PartiallyTransferred reports whether the consult leg exists even though
// the transfer failed.
func (e *Error) PartiallyTransferred() bool {
	return e.Session.ConsultCallID != ""
}

// AsError unwraps a transfer failure.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
