package telephony

import "strings"

// EventKind is the closed set of webhook classifications.
type EventKind string

const (
	EventParticipantJoin  EventKind = "participant-join"
	EventParticipantLeave EventKind = "participant-leave"
	EventConferenceEnd    EventKind = "conference-end"
	// EventUnhandled is a conference event we do not act on; Event.Name
	// carries the provider's event name.
	EventUnhandled EventKind = "unhandled"

	EventCallStatusUpdate EventKind = "call-status-update"
	// EventCallCompleted is the terminal call status. It is persisted but
	// never dispatched.
	EventCallCompleted EventKind = "call-completed"

	EventUnrecognized EventKind = "unrecognized"
)

const statusCompleted = "completed"

// Event is a classified webhook. Name is set for EventUnhandled, Status for
// EventCallStatusUpdate and EventCallCompleted.
type Event struct {
	Kind    EventKind
	Name    string
	Status  string
	Payload WebhookPayload
}

// Classify decodes a payload into exactly one EventKind. It never fails:
// payloads without a known discriminator become EventUnrecognized.
//
// StatusCallbackEvent is checked first, so a conference event that also
// carries CallStatus is still a conference event.
func Classify(p WebhookPayload) Event {
	ev := Event{Payload: p}

	if name := strings.TrimSpace(p.StatusCallbackEvent); name != "" {
		switch strings.ToLower(name) {
		case "participant-join":
			ev.Kind = EventParticipantJoin
		case "participant-leave":
			ev.Kind = EventParticipantLeave
		case "conference-end":
			ev.Kind = EventConferenceEnd
		default:
			ev.Kind = EventUnhandled
			ev.Name = name
		}
		return ev
	}

	if status := strings.ToLower(strings.TrimSpace(p.CallStatus)); status != "" {
		ev.Status = status
		if status == statusCompleted {
			ev.Kind = EventCallCompleted
		} else {
			ev.Kind = EventCallStatusUpdate
		}
		return ev
	}

	ev.Kind = EventUnrecognized
	return ev
}

// Dispatchable reports whether the event leads to a notification.
func (e Event) Dispatchable() bool {
	switch e.Kind {
	case EventParticipantJoin, EventParticipantLeave, EventConferenceEnd, EventCallStatusUpdate:
		return true
	default:
		return false
	}
}
