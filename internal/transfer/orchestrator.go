package transfer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"telecom-bridge/internal/apperr"
	"telecom-bridge/internal/calls"
	"telecom-bridge/internal/telephony"
	"telecom-bridge/pkg/logger"
)

// Request describes an attended transfer: put OriginalCallID on hold in
// ConferenceID, dial ConsultTo from ConsultFrom (ConsultURL serves the
// consultee's TwiML), bridge the consult leg into the conference, then
// resume the original.
type Request struct {
	ConferenceID   string `json:"conference_id"`
	OriginalCallID string `json:"original_call_id"`
	ConsultFrom    string `json:"consult_from"`
	ConsultTo      string `json:"consult_to"`
	ConsultURL     string `json:"consult_url"`
}

func (r Request) validate() error {
	var missing []string
	for _, f := range [][2]string{
		{"conference_id", r.ConferenceID},
		{"original_call_id", r.OriginalCallID},
		{"consult_from", r.ConsultFrom},
		{"consult_to", r.ConsultTo},
		{"consult_url", r.ConsultURL},
	} {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("transfer.attended", "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// JoinURLFunc returns the URL serving TwiML that joins a call to the named
// conference.
type JoinURLFunc func(conferenceID string) string

// Orchestrator sequences call-control operations for transfers.
// It takes no locks; concurrent transfers on one conference must be
// prevented by the caller (see Guard).
type Orchestrator struct {
	control telephony.CallControl
	joinURL JoinURLFunc
	store   calls.Store
	logger  *slog.Logger
	clock   func() time.Time
}

type Option func(*Orchestrator)

// WithCallStore records the consult leg in the call log after dialing.
func WithCallStore(s calls.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time source for the consult leg's first timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.clock = now
		}
	}
}

func NewOrchestrator(control telephony.CallControl, joinURL JoinURLFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{control: control, joinURL: joinURL, logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// step is one saga transition. resumeOnFailure selects the compensation.
type step struct {
	to              Phase
	resumeOnFailure bool
	run             func(ctx context.Context, s *Session) error
}

// AttendedTransfer runs hold -> dial -> bridge -> resume strictly in order.
//
// On failure it performs the compensation for the failed step and returns
// an *Error carrying the phases:
//   - hold fails: nothing to undo;
//   - dial or bridge fails: the original is resumed; a dialed consult leg is
//     left up so the agent can retry the bridge;
//   - resume fails: nothing further to undo.
//
// Once the first step starts, cancellation of ctx is ignored so the saga
// always ends in PhaseComplete or a compensated PhaseFailed.
func (o *Orchestrator) AttendedTransfer(ctx context.Context, req Request) (Session, error) {
	sess := Session{ConferenceID: req.ConferenceID, OriginalCallID: req.OriginalCallID, Phase: PhaseIdle}
	if err := req.validate(); err != nil {
		return sess, err
	}
	if o.control == nil || o.joinURL == nil {
		return sess, errors.New("transfer: orchestrator not configured")
	}
	if err := ctx.Err(); err != nil {
		return sess, err
	}
	ctx = context.WithoutCancel(ctx)

	log := logger.FromOr(ctx, o.logger).With("conference_sid", req.ConferenceID, "call_sid", req.OriginalCallID)

	steps := []step{
		{
			to: PhaseOriginalHeld,
			run: func(ctx context.Context, s *Session) error {
				return o.control.SetParticipantHold(ctx, s.ConferenceID, s.OriginalCallID, true)
			},
		},
		{
			to:              PhaseConsultDialed,
			resumeOnFailure: true,
			run: func(ctx context.Context, s *Session) error {
				id, err := o.control.DialOut(ctx, req.ConsultFrom, req.ConsultTo, req.ConsultURL)
				if err != nil {
					return err
				}
				s.ConsultCallID = id
				o.recordConsultLeg(ctx, log, req, id)
				return nil
			},
		},
		{
			to:              PhaseConsultBridged,
			resumeOnFailure: true,
			run: func(ctx context.Context, s *Session) error {
				return o.control.AddParticipantToConference(ctx, s.ConferenceID, s.ConsultCallID, o.joinURL(s.ConferenceID))
			},
		},
		{
			to: PhaseOriginalResumed,
			run: func(ctx context.Context, s *Session) error {
				return o.control.SetParticipantHold(ctx, s.ConferenceID, s.OriginalCallID, false)
			},
		},
	}

	for _, st := range steps {
		if err := st.run(ctx, &sess); err != nil {
			return o.fail(ctx, log, sess, st, err)
		}
		sess.Phase = st.to
		log.Debug("transfer phase reached", "phase", string(sess.Phase), "consult_call_sid", sess.ConsultCallID)
	}

	sess.Phase = PhaseComplete
	log.Info("attended transfer complete", "consult_call_sid", sess.ConsultCallID)
	return sess, nil
}

func (o *Orchestrator) fail(ctx context.Context, log *slog.Logger, sess Session, st step, cause error) (Session, error) {
	te := &Error{Reached: sess.Phase, Attempted: st.to, Err: cause}

	if st.resumeOnFailure {
		if err := o.control.SetParticipantHold(ctx, sess.ConferenceID, sess.OriginalCallID, false); err != nil {
			te.CompensationErr = err
			log.Error("resume original after failed transfer step failed", "attempted", string(st.to), "err", err)
		} else {
			te.Compensated = true
		}
	}

	sess.Phase = PhaseFailed
	te.Session = sess
	log.Warn("attended transfer failed",
		"reached", string(te.Reached),
		"attempted", string(te.Attempted),
		"compensated", te.Compensated,
		"consult_call_sid", sess.ConsultCallID,
		"err", cause,
	)
	return sess, te
}

// recordConsultLeg is bookkeeping; a failed write does not fail the saga.
func (o *Orchestrator) recordConsultLeg(ctx context.Context, log *slog.Logger, req Request, callID string) {
	if o.store == nil {
		return
	}
	// Dial time until the leg's own status callbacks carry provider time.
	dialedAt := o.clock().UTC()
	_, err := o.store.Upsert(ctx, calls.CallUpdate{
		CallID:       callID,
		ConferenceID: req.ConferenceID,
		Status:       calls.CallStatusInitiated,
		Direction:    calls.DirectionOutbound,
		From:         req.ConsultFrom,
		To:           req.ConsultTo,
		Timestamp:    &dialedAt,
	})
	if err != nil {
		log.Error("consult leg call log write failed", "consult_call_sid", callID, "err", err)
	}
}

// BlindTransfer redirects a live call to new TwiML without consultation.
func (o *Orchestrator) BlindTransfer(ctx context.Context, callID, redirectURL string) error {
	if callID == "" || redirectURL == "" {
		return apperr.Validation("transfer.blind", "call_id and redirect url required")
	}
	return o.control.UpdateCallStatus(ctx, callID, string(calls.CallStatusInProgress), redirectURL)
}

func (o *Orchestrator) Hangup(ctx context.Context, callID string) error {
	if callID == "" {
		return apperr.Validation("transfer.hangup", "call_id required")
	}
	return o.control.UpdateCallStatus(ctx, callID, string(calls.CallStatusCompleted), "")
}

// SendDigits plays DTMF on a call and continues with continueURL.
func (o *Orchestrator) SendDigits(ctx context.Context, callID, digits, continueURL string) error {
	if callID == "" || digits == "" || continueURL == "" {
		return apperr.Validation("transfer.digits", "call_id, digits and continue url required")
	}
	return o.control.PlayDigitsThenRedirect(ctx, callID, digits, continueURL)
}

func (o *Orchestrator) RemoveParticipant(ctx context.Context, conferenceID, callID string) error {
	if conferenceID == "" || callID == "" {
		return apperr.Validation("transfer.remove_participant", "conference_id and call_id required")
	}
	return o.control.RemoveParticipant(ctx, conferenceID, callID)
}
