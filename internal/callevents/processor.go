package callevents

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"telecom-bridge/internal/apperr"
	"telecom-bridge/internal/calls"
	"telecom-bridge/internal/dispatch"
	"telecom-bridge/internal/events"
	"telecom-bridge/internal/routing"
	"telecom-bridge/internal/telephony"
	"telecom-bridge/pkg/logger"
)

// Processor runs one provider webhook through
// classify -> call log upsert -> resolve -> dispatch.
//
// Error policy:
//   - a malformed call-scoped event is a validation error;
//   - a failed call log write is bookkeeping: logged, reported in
//     Outcome.BookkeepingErr, and does not stop the notification;
//   - a failed directory lookup or publish is returned.
//
// Every step is idempotent, so provider retries are safe.
type Processor struct {
	store      calls.Store
	resolver   *routing.Resolver
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

func NewProcessor(store calls.Store, resolver *routing.Resolver, dispatcher *dispatch.Dispatcher, l *slog.Logger) *Processor {
	if l == nil {
		l = slog.Default()
	}
	return &Processor{store: store, resolver: resolver, dispatcher: dispatcher, logger: l}
}

// Outcome describes what happened to one webhook.
type Outcome struct {
	Event      telephony.Event
	Persisted  bool
	Dispatched bool

	BookkeepingErr error
}

// HandleCallEvent processes conference and call status callbacks.
func (p *Processor) HandleCallEvent(ctx context.Context, payload telephony.WebhookPayload) (Outcome, error) {
	ev := telephony.Classify(payload)
	out := Outcome{Event: ev}
	log := logger.FromOr(ctx, p.logger).With("call_sid", payload.CallSid, "conference_sid", payload.ConferenceSid, "event", string(ev.Kind))

	switch ev.Kind {
	case telephony.EventUnrecognized:
		log.Debug("unrecognized webhook payload ignored")
		return out, nil

	case telephony.EventUnhandled:
		log.Debug("conference event not handled", "name", ev.Name)
		return out, nil

	case telephony.EventConferenceEnd:
		if payload.ConferenceSid == "" {
			return out, apperr.Validation("callevents.conference_end", "ConferenceSid required")
		}
		if err := p.dispatcher.ConferenceEnd(ctx, payload.ConferenceSid, payload.ReasonConferenceEnded, payload.CallSidEndingConference); err != nil {
			return out, err
		}
		out.Dispatched = true
		return out, nil
	}

	// Everything below is call-scoped.
	if payload.CallSid == "" {
		return out, apperr.Validation("callevents."+string(ev.Kind), "CallSid required")
	}
	call := callInfo(payload)

	switch ev.Kind {
	case telephony.EventParticipantJoin:
		u := baseUpdate(payload)
		u.Status = calls.CallStatusInProgress
		u.ParticipantID = payload.ParticipantLabel
		p.record(ctx, log, &out, u)

		res, err := p.resolver.ResolveJoin(ctx, payload.From, payload.To)
		if err != nil {
			return out, err
		}
		if err := p.dispatcher.Join(ctx, call, res); err != nil {
			return out, err
		}
		out.Dispatched = true
		log.Info("participant join dispatched", "target", string(res.Target.Kind()))

	case telephony.EventParticipantLeave:
		u := baseUpdate(payload)
		u.DurationSeconds = payload.CallDurationSeconds()
		p.record(ctx, log, &out, u)

		if err := p.dispatcher.Leave(ctx, call); err != nil {
			return out, err
		}
		out.Dispatched = true

	case telephony.EventCallStatusUpdate:
		u := baseUpdate(payload)
		u.Status = parseStatus(log, ev.Status)
		u.DurationSeconds = payload.CallDurationSeconds()
		p.record(ctx, log, &out, u)

		target, err := p.resolver.ResolveTarget(ctx, payload.To)
		if err != nil {
			return out, err
		}
		if err := p.dispatcher.StatusUpdate(ctx, call, ev.Status, target); err != nil {
			return out, err
		}
		out.Dispatched = true

	case telephony.EventCallCompleted:
		u := baseUpdate(payload)
		u.Status = calls.CallStatusCompleted
		u.DurationSeconds = payload.CallDurationSeconds()
		p.record(ctx, log, &out, u)
	}

	return out, nil
}

// HandleOutboundStatus records progress of a call this service dialed and
// publishes it on the outbound channel, terminal statuses included.
func (p *Processor) HandleOutboundStatus(ctx context.Context, payload telephony.WebhookPayload) (Outcome, error) {
	out := Outcome{Event: telephony.Classify(payload)}
	if payload.CallSid == "" {
		return out, apperr.Validation("callevents.outbound_status", "CallSid required")
	}
	if payload.CallStatus == "" {
		return out, apperr.Validation("callevents.outbound_status", "CallStatus required")
	}
	log := logger.FromOr(ctx, p.logger).With("call_sid", payload.CallSid, "event", "outbound-status")

	u := baseUpdate(payload)
	u.Direction = calls.DirectionOutbound
	u.Status = parseStatus(log, payload.CallStatus)
	u.DurationSeconds = payload.CallDurationSeconds()
	p.record(ctx, log, &out, u)

	status := string(u.Status)
	if status == "" {
		status = strings.ToLower(payload.CallStatus)
	}
	if err := p.dispatcher.OutboundStatus(ctx, callInfo(payload), status, u.DurationSeconds); err != nil {
		return out, err
	}
	out.Dispatched = true
	return out, nil
}

// HandleRecording attaches a finished recording to its call, or to every
// leg of its conference when the provider reports it at conference scope.
func (p *Processor) HandleRecording(ctx context.Context, payload telephony.WebhookPayload) (Outcome, error) {
	out := Outcome{Event: telephony.Classify(payload)}
	if payload.RecordingUrl == "" {
		return out, apperr.Validation("callevents.recording", "RecordingUrl required")
	}
	log := logger.FromOr(ctx, p.logger).With("call_sid", payload.CallSid, "conference_sid", payload.ConferenceSid, "event", "recording")
	duration := payload.RecordingDurationSeconds()

	switch {
	case payload.CallSid != "":
		p.record(ctx, log, &out, calls.CallUpdate{
			CallID:          payload.CallSid,
			ConferenceID:    payload.ConferenceSid,
			RecordingURL:    payload.RecordingUrl,
			DurationSeconds: duration,
		})
	case payload.ConferenceSid != "":
		n, err := p.store.AttachConferenceRecording(ctx, payload.ConferenceSid, payload.RecordingUrl, duration)
		if err != nil {
			out.BookkeepingErr = err
			log.Error("conference recording write failed", "err", err)
			return out, nil
		}
		out.Persisted = n > 0
		if n == 0 {
			log.Warn("conference recording matched no call legs")
		}
	default:
		return out, apperr.Validation("callevents.recording", "CallSid or ConferenceSid required")
	}
	return out, nil
}

func (p *Processor) record(ctx context.Context, log *slog.Logger, out *Outcome, u calls.CallUpdate) {
	if p.store == nil {
		out.BookkeepingErr = errors.New("callevents: call store not configured")
		log.Error("call log write skipped", "err", out.BookkeepingErr)
		return
	}
	if _, err := p.store.Upsert(ctx, u); err != nil {
		out.BookkeepingErr = err
		log.Error("call log write failed", "err", err)
		return
	}
	out.Persisted = true
}

func baseUpdate(p telephony.WebhookPayload) calls.CallUpdate {
	u := calls.CallUpdate{
		CallID:       p.CallSid,
		ConferenceID: p.ConferenceSid,
		From:         p.From,
		To:           p.To,
		Timestamp:    p.OccurredAt(),
	}
	if d, ok := calls.ParseDirection(p.Direction); ok {
		u.Direction = d
	}
	return u
}

func parseStatus(log *slog.Logger, raw string) calls.CallStatus {
	st, ok := calls.ParseStatus(raw)
	if !ok {
		log.Warn("unknown call status, keeping stored status", "status", raw)
		return ""
	}
	return st
}

func callInfo(p telephony.WebhookPayload) events.CallInfo {
	return events.CallInfo{
		CallSid:       p.CallSid,
		ConferenceSid: p.ConferenceSid,
		From:          p.From,
		To:            p.To,
	}
}
