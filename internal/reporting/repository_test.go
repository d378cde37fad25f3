package reporting

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"telecom-bridge/internal/audit"
	"telecom-bridge/internal/calls"
	"telecom-bridge/internal/migrate"
	"telecom-bridge/internal/transfer"

	_ "modernc.org/sqlite"
)

func TestSQLRepository_ReadsCallLogsAndAudit(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()
	if _, err := migrate.Up(ctx, db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	store := calls.NewSQLRepository(db)
	for _, u := range []calls.CallUpdate{
		{CallID: "CA1", Status: calls.CallStatusCompleted, Direction: calls.DirectionInbound, DurationSeconds: intPtr(40), Timestamp: at(now)},
		{CallID: "CA2", Status: calls.CallStatusBusy, Direction: calls.DirectionOutbound, Timestamp: at(now)},
		{CallID: "CA3", Status: calls.CallStatusCompleted, Timestamp: at(now.Add(-48 * time.Hour))},
	} {
		if _, err := store.Upsert(ctx, u); err != nil {
			t.Fatalf("seed %s: %v", u.CallID, err)
		}
	}

	auditSvc := audit.NewService(audit.NewSQLRepository(db))
	if err := auditSvc.Append(ctx, audit.Event{
		Type:          audit.EventTypeCallControl,
		Action:        audit.ActionHangup,
		ActorUsername: "jdoe",
		Outcome:       audit.OutcomeSucceeded,
		CreatedAt:     now,
	}); err != nil {
		t.Fatalf("audit: %v", err)
	}

	svc := NewService(NewSQLRepository(db))
	rng := TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}

	summary, err := svc.CallsSummary(ctx, CallsSummaryRequest{Range: rng})
	if err != nil {
		t.Fatalf("calls summary: %v", err)
	}
	if summary.TotalCalls != 2 || summary.BusyCalls != 1 || summary.TotalDurationSeconds != 40 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	inbound, err := svc.CallsSummary(ctx, CallsSummaryRequest{Range: rng, Direction: "inbound"})
	if err != nil {
		t.Fatalf("inbound summary: %v", err)
	}
	if inbound.TotalCalls != 1 {
		t.Fatalf("expected one inbound call, got %+v", inbound)
	}

	actions, err := svc.CallActions(ctx, CallActionsRequest{Range: rng, ActorUsername: "jdoe"})
	if err != nil {
		t.Fatalf("call actions: %v", err)
	}
	if actions.Total != 1 || actions.Actions[string(audit.ActionHangup)].Succeeded != 1 {
		t.Fatalf("unexpected actions %+v", actions)
	}
}

// stubControl answers every call-control request and dials CA-consult.
type stubControl struct{}

func (stubControl) SetParticipantHold(ctx context.Context, conferenceID, callID string, hold bool) error {
	return nil
}
func (stubControl) DialOut(ctx context.Context, from, to, connectURL string) (string, error) {
	return "CA-consult", nil
}
func (stubControl) AddParticipantToConference(ctx context.Context, conferenceID, callID, connectURL string) error {
	return nil
}
func (stubControl) UpdateCallStatus(ctx context.Context, callID, status, redirectURL string) error {
	return nil
}
func (stubControl) RemoveParticipant(ctx context.Context, conferenceID, callID string) error {
	return nil
}
func (stubControl) PlayDigitsThenRedirect(ctx context.Context, callID, digits, redirectURL string) error {
	return nil
}

func TestSQLRepository_CountsConsultLegs(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()
	if _, err := migrate.Up(ctx, db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	store := calls.NewSQLRepository(db)
	if _, err := store.Upsert(ctx, calls.CallUpdate{
		CallID:       "CA-orig",
		ConferenceID: "CF1",
		Status:       calls.CallStatusInProgress,
		Direction:    calls.DirectionInbound,
		Timestamp:    at(now),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	orch := transfer.NewOrchestrator(stubControl{},
		func(conf string) string { return "https://bridge.example/twiml/conference/" + conf },
		transfer.WithCallStore(store),
		transfer.WithClock(func() time.Time { return now.Add(time.Minute) }),
	)
	if _, err := orch.AttendedTransfer(ctx, transfer.Request{
		ConferenceID:   "CF1",
		OriginalCallID: "CA-orig",
		ConsultFrom:    "+15550000001",
		ConsultTo:      "+15550000002",
		ConsultURL:     "https://bridge.example/twiml/consult",
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	summary, err := NewService(NewSQLRepository(db)).CallsSummary(ctx, CallsSummaryRequest{
		Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("calls summary: %v", err)
	}
	if summary.TotalCalls != 2 || summary.ConferenceCalls != 2 {
		t.Fatalf("expected original and consult legs, got %+v", summary)
	}
}
