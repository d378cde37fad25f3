package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// There are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only.
// - Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.Action == "" {
		return ErrInvalidEvent
	}
	if e.Outcome == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// CallAction describes one agent call-control request.
type CallAction struct {
	Action        Action
	ActorUsername string
	ActorRole     string
	IP            string
	CallID        string
	ConferenceID  string
	Metadata      string
}

// LogCallAction records the outcome of a call-control request. A nil err
// is recorded as succeeded.
func (s *Service) LogCallAction(ctx context.Context, a CallAction, err error) error {
	e := Event{
		Type:          EventTypeCallControl,
		Action:        a.Action,
		ActorUsername: a.ActorUsername,
		ActorRole:     a.ActorRole,
		IPAddress:     a.IP,
		CallID:        a.CallID,
		ConferenceID:  a.ConferenceID,
		Outcome:       OutcomeSucceeded,
		Metadata:      a.Metadata,
	}
	if err != nil {
		e.Outcome = OutcomeFailed
		e.Message = err.Error()
	}
	return s.Append(ctx, e)
}
