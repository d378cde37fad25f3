package audit

import "time"

// Event is an immutable, append-only audit log record of an agent-initiated
// call-control action.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block call control on audit failures.
//
// Storage: table audit_events with an INSERT-only policy.
type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type   EventType `json:"type" db:"type"`
	Action Action    `json:"action" db:"action"`

	ActorUsername string `json:"actor_username,omitempty" db:"actor_username"`
	ActorRole     string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress is the resolved client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	CallID       string `json:"call_id,omitempty" db:"call_id"`
	ConferenceID string `json:"conference_id,omitempty" db:"conference_id"`

	Outcome Outcome `json:"outcome" db:"outcome"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCallControl EventType = "call_control"
)

type Action string

const (
	ActionAttendedTransfer  Action = "attended_transfer"
	ActionBlindTransfer     Action = "blind_transfer"
	ActionHangup            Action = "hangup"
	ActionSendDigits        Action = "send_digits"
	ActionRemoveParticipant Action = "remove_participant"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)
