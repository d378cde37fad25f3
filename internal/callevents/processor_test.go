package callevents

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"telecom-bridge/internal/apperr"
	"telecom-bridge/internal/calls"
	"telecom-bridge/internal/directory"
	"telecom-bridge/internal/dispatch"
	"telecom-bridge/internal/events"
	"telecom-bridge/internal/routing"
	"telecom-bridge/internal/telephony"
)

type fixture struct {
	store *calls.MemoryRepo
	dir   *directory.MemoryRepo
	bus   *events.MemoryBus
	proc  *Processor
}

func newFixture() fixture {
	f := fixture{
		store: calls.NewMemoryRepo(),
		dir:   directory.NewMemoryRepo(),
		bus:   events.NewMemoryBus(),
	}
	f.proc = NewProcessor(f.store, routing.NewResolver(f.dir), dispatch.NewDispatcher(f.bus), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func payload(kv ...string) telephony.WebhookPayload {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return telephony.PayloadFromForm(v)
}

// failingStore fails every write.
type failingStore struct{ *calls.MemoryRepo }

func (*failingStore) Upsert(ctx context.Context, u calls.CallUpdate) (calls.CallRecord, error) {
	return calls.CallRecord{}, apperr.Store("calls.upsert", errors.New("disk full"))
}

func TestHandleCallEvent_JoinToAssignedUser(t *testing.T) {
	f := newFixture()
	f.dir.Assignments["+15553334444"] = directory.Assignment{PhoneNumber: "+15553334444", Status: "Assigned", AssignedUser: "jdoe"}

	out, err := f.proc.HandleCallEvent(context.Background(), payload(
		"StatusCallbackEvent", "participant-join",
		"CallSid", "CA1",
		"ConferenceSid", "CF1",
		"From", "+15551112222",
		"To", "+15553334444",
		"Direction", "inbound",
	))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !out.Persisted || !out.Dispatched {
		t.Fatalf("unexpected outcome %+v", out)
	}

	msgs := f.bus.Published()
	if len(msgs) != 1 || msgs[0].Channel() != "user-notification-jdoe" {
		t.Fatalf("unexpected publishes %#v", msgs)
	}
	if n := msgs[0].(events.UserNotification); n.From != "+15551112222" {
		t.Fatalf("expected from on payload, got %q", n.From)
	}

	rec, err := f.store.Get(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ConferenceID != "CF1" || rec.Status != calls.CallStatusInProgress || rec.Direction != calls.DirectionInbound {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestHandleCallEvent_CompletedIsPersistedNotDispatched(t *testing.T) {
	f := newFixture()
	out, err := f.proc.HandleCallEvent(context.Background(), payload("CallSid", "CA2", "CallStatus", "completed", "CallDuration", "30"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Dispatched || len(f.bus.Published()) != 0 {
		t.Fatalf("completed must not notify")
	}
	rec, _ := f.store.Get(context.Background(), "CA2")
	if rec.Status != calls.CallStatusCompleted || rec.DurationSeconds == nil || *rec.DurationSeconds != 30 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestHandleCallEvent_StatusUpdateSkipsLead(t *testing.T) {
	f := newFixture()
	f.dir.RingGroups["+1999"] = directory.RingGroup{PhoneNumber: "+1999", GroupName: "sales"}

	if _, err := f.proc.HandleCallEvent(context.Background(), payload("CallSid", "CA3", "CallStatus", "ringing", "From", "+1000", "To", "+1999")); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, l := range f.dir.Lookups {
		if l == "lead:+1000" {
			t.Fatalf("status updates must not look up leads: %v", f.dir.Lookups)
		}
	}
	msgs := f.bus.Published()
	if len(msgs) != 1 || msgs[0].Channel() != events.ChannelCallStatusUpdate {
		t.Fatalf("expected generic status channel, got %#v", msgs)
	}
}

func TestHandleCallEvent_LeaveAndEndBypassDirectory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.proc.HandleCallEvent(ctx, payload("StatusCallbackEvent", "participant-leave", "CallSid", "CA4", "ConferenceSid", "CF4")); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := f.proc.HandleCallEvent(ctx, payload("StatusCallbackEvent", "conference-end", "ConferenceSid", "CF4", "CallStatus", "in-progress")); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(f.dir.Lookups) != 0 {
		t.Fatalf("expected no directory lookups, got %v", f.dir.Lookups)
	}
	msgs := f.bus.Published()
	if len(msgs) != 2 || msgs[0].Channel() != "participant-leave" || msgs[1].Channel() != "conference-end" {
		t.Fatalf("unexpected publishes %#v", msgs)
	}
}

func TestHandleCallEvent_Errors(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	if _, err := f.proc.HandleCallEvent(ctx, payload("StatusCallbackEvent", "participant-join")); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error without CallSid, got %v", err)
	}

	f.dir.Err = apperr.Store("directory.find_lead", errors.New("timeout"))
	out, err := f.proc.HandleCallEvent(ctx, payload("StatusCallbackEvent", "participant-join", "CallSid", "CA5", "To", "+1"))
	if !errors.Is(err, apperr.ErrStore) {
		t.Fatalf("expected directory store error, got %v", err)
	}
	if out.Dispatched || len(f.bus.Published()) != 0 {
		t.Fatalf("must not dispatch on routing failure")
	}

	out, err = f.proc.HandleCallEvent(ctx, payload("CallSid", "CA6"))
	if err != nil || out.Event.Kind != telephony.EventUnrecognized {
		t.Fatalf("expected unrecognized no-op, got %v %v", out.Event.Kind, err)
	}
}

func TestHandleCallEvent_BookkeepingFailureStillDispatches(t *testing.T) {
	f := newFixture()
	f.proc = NewProcessor(&failingStore{calls.NewMemoryRepo()}, routing.NewResolver(f.dir), dispatch.NewDispatcher(f.bus), nil)

	out, err := f.proc.HandleCallEvent(context.Background(), payload("CallSid", "CA7", "CallStatus", "busy"))
	if err != nil {
		t.Fatalf("bookkeeping failure must not surface: %v", err)
	}
	if !errors.Is(out.BookkeepingErr, apperr.ErrStore) {
		t.Fatalf("expected bookkeeping error recorded, got %v", out.BookkeepingErr)
	}
	if !out.Dispatched {
		t.Fatalf("expected dispatch despite bookkeeping failure")
	}
}

func TestHandleOutboundStatus(t *testing.T) {
	f := newFixture()
	out, err := f.proc.HandleOutboundStatus(context.Background(), payload("CallSid", "CA8", "CallStatus", "completed", "CallDuration", "12", "Direction", "outbound-api"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !out.Dispatched {
		t.Fatalf("expected outbound status published")
	}
	msgs := f.bus.Published()
	m, ok := msgs[0].(events.OutboundCallStatus)
	if !ok || m.Status != "completed" || m.DurationSeconds == nil || *m.DurationSeconds != 12 {
		t.Fatalf("unexpected message %#v", msgs[0])
	}
	rec, _ := f.store.Get(context.Background(), "CA8")
	if rec.Direction != calls.DirectionOutbound {
		t.Fatalf("expected outbound direction, got %q", rec.Direction)
	}
}

func TestHandleRecording(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, id := range []string{"CA10", "CA11"} {
		if _, err := f.store.Upsert(ctx, calls.CallUpdate{CallID: id, ConferenceID: "CF10"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	out, err := f.proc.HandleRecording(ctx, payload("ConferenceSid", "CF10", "RecordingUrl", "https://rec/RE1", "RecordingDuration", "61"))
	if err != nil || !out.Persisted {
		t.Fatalf("unexpected outcome %+v err %v", out, err)
	}
	rec, _ := f.store.Get(ctx, "CA11")
	if rec.RecordingURL != "https://rec/RE1" || *rec.DurationSeconds != 61 {
		t.Fatalf("unexpected record %+v", rec)
	}

	if _, err := f.proc.HandleRecording(ctx, payload("CallSid", "CA10")); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error without url, got %v", err)
	}
	if _, err := f.proc.HandleRecording(ctx, payload("RecordingUrl", "https://rec/RE2")); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error without scope, got %v", err)
	}
}
