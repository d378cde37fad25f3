package calls

import (
	"strings"
	"time"
)

// CallRecord is one stored call leg, keyed by the provider call identifier.
//
// Invariant: at most one record per CallID. Rows are never deleted here;
// see Store.Upsert for the merge rules applied on every update.
type CallRecord struct {
	CallID       string `json:"call_id" db:"call_id"`
	ConferenceID string `json:"conference_id,omitempty" db:"conference_id"`

	Status    CallStatus `json:"status" db:"status"`
	Direction Direction  `json:"direction,omitempty" db:"direction"`

	From string `json:"from,omitempty" db:"from_number"`
	To   string `json:"to,omitempty" db:"to_number"`

	// DurationSeconds is nil until the provider reports a duration.
	DurationSeconds *int `json:"duration_seconds,omitempty" db:"duration_seconds"`

	RecordingURL  string `json:"recording_url,omitempty" db:"recording_url"`
	ParticipantID string `json:"participant_id,omitempty" db:"participant_id"`

	// Timestamp is the provider event time of the last update that carried one.
	// A consult leg starts with its local dial time.
	Timestamp *time.Time `json:"timestamp,omitempty" db:"occurred_at"`
}

// CallUpdate is a partial CallRecord. Empty strings and nil pointers mean
// "absent from this update".
type CallUpdate struct {
	CallID       string
	ConferenceID string

	Status    CallStatus
	Direction Direction

	From string
	To   string

	DurationSeconds *int
	RecordingURL    string
	ParticipantID   string
	Timestamp       *time.Time
}

type CallStatus string

const (
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusAnswered   CallStatus = "answered"
	CallStatusPaused     CallStatus = "paused"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusCanceled   CallStatus = "canceled"
	CallStatusBusy       CallStatus = "busy"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
)

// ParseStatus maps a provider status string onto CallStatus.
// Provider spellings ("queued", "in_progress", "held") are folded in.
func ParseStatus(s string) (CallStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "_", "-")
	switch v {
	case "initiated", "queued":
		return CallStatusInitiated, true
	case "ringing":
		return CallStatusRinging, true
	case "answered":
		return CallStatusAnswered, true
	case "paused", "held", "on-hold":
		return CallStatusPaused, true
	case "in-progress":
		return CallStatusInProgress, true
	case "completed":
		return CallStatusCompleted, true
	case "canceled", "cancelled":
		return CallStatusCanceled, true
	case "busy":
		return CallStatusBusy, true
	case "failed":
		return CallStatusFailed, true
	case "no-answer":
		return CallStatusNoAnswer, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further lifecycle events are expected.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusCanceled, CallStatusBusy, CallStatusFailed, CallStatusNoAnswer:
		return true
	default:
		return false
	}
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// ParseDirection accepts the provider variants ("outbound-api",
// "outbound-dial") as outbound.
func ParseDirection(s string) (Direction, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "inbound":
		return DirectionInbound, true
	case strings.HasPrefix(v, "outbound"):
		return DirectionOutbound, true
	default:
		return "", false
	}
}
