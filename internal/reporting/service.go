package reporting

import (
	"context"
	"errors"
	"time"

	"telecom-bridge/internal/apperr"
	"telecom-bridge/internal/audit"
	"telecom-bridge/internal/calls"
)

// Repository abstracts data access for reporting. Both sources are
// append-or-merge tables owned by other packages; reporting only reads.
type Repository interface {
	ListCalls(ctx context.Context, from, to time.Time, direction calls.Direction) ([]calls.CallRecord, error)
	ListCallActions(ctx context.Context, from, to time.Time, actorUsername string) ([]audit.Event, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func validRange(op string, r TimeRange) error {
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return apperr.Validation(op, "range.from must be before range.to")
	}
	return nil
}

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if err := validRange("reporting.calls_summary", req.Range); err != nil {
		return CallsSummary{}, err
	}
	var dir calls.Direction
	if req.Direction != "" {
		d, ok := calls.ParseDirection(req.Direction)
		if !ok {
			return CallsSummary{}, apperr.Validation("reporting.calls_summary", "unknown direction %q", req.Direction)
		}
		dir = d
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListCalls(ctx, req.Range.From, req.Range.To, dir)
	if err != nil {
		return CallsSummary{}, apperr.Store("reporting.calls_summary", err)
	}

	out := CallsSummary{Range: req.Range, Direction: string(dir)}
	durations := 0
	for _, c := range rows {
		out.TotalCalls++
		if c.DurationSeconds != nil {
			out.TotalDurationSeconds += *c.DurationSeconds
			durations++
		}
		if c.RecordingURL != "" {
			out.RecordedCalls++
		}
		if c.ConferenceID != "" {
			out.ConferenceCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusNoAnswer:
			out.NoAnswerCalls++
		case calls.CallStatusBusy:
			out.BusyCalls++
		case calls.CallStatusCanceled:
			out.CanceledCalls++
		case calls.CallStatusInProgress, calls.CallStatusAnswered, calls.CallStatusPaused:
			out.InProgressCalls++
		}
	}
	if durations > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / durations
	}
	return out, nil
}

func (s *Service) CallActions(ctx context.Context, req CallActionsRequest) (CallActionsSummary, error) {
	if err := validRange("reporting.call_actions", req.Range); err != nil {
		return CallActionsSummary{}, err
	}
	if s.repo == nil {
		return CallActionsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListCallActions(ctx, req.Range.From, req.Range.To, req.ActorUsername)
	if err != nil {
		return CallActionsSummary{}, apperr.Store("reporting.call_actions", err)
	}

	out := CallActionsSummary{Range: req.Range, ActorUsername: req.ActorUsername, Actions: map[string]ActionCount{}}
	for _, e := range rows {
		if e.Type != audit.EventTypeCallControl {
			continue
		}
		out.Total++
		c := out.Actions[string(e.Action)]
		if e.Outcome == audit.OutcomeSucceeded {
			c.Succeeded++
		} else {
			c.Failed++
		}
		out.Actions[string(e.Action)] = c
	}
	if t, ok := out.Actions[string(audit.ActionAttendedTransfer)]; ok {
		if attempted := t.Succeeded + t.Failed; attempted > 0 {
			out.TransferSuccessRate = float64(t.Succeeded) / float64(attempted)
		}
	}
	return out, nil
}
