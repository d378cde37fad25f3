package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func TestService_AppendRequiresTypeActionAndOutcome(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.Append(ctx, Event{Action: ActionHangup, Outcome: OutcomeSucceeded}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected invalid event, got %v", err)
	}
	if err := svc.Append(ctx, Event{Type: EventTypeCallControl, Outcome: OutcomeSucceeded}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected invalid event, got %v", err)
	}
}

func TestService_LogCallAction(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	a := CallAction{Action: ActionAttendedTransfer, ActorUsername: "jdoe", ActorRole: "agent", IP: "1.2.3.4", ConferenceID: "CF1", CallID: "CA1"}
	if err := svc.LogCallAction(ctx, a, nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogCallAction(ctx, a, errors.New("dial failed")); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Outcome != OutcomeSucceeded || evs[0].IPAddress != "1.2.3.4" || evs[0].ID == "" {
		t.Fatalf("unexpected event %+v", evs[0])
	}
	if evs[1].Outcome != OutcomeFailed || evs[1].Message != "dial failed" {
		t.Fatalf("unexpected failure event %+v", evs[1])
	}
}

func TestSQLRepository_Append(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(`CREATE TABLE audit_events (
  id TEXT PRIMARY KEY, type TEXT NOT NULL, action TEXT NOT NULL,
  actor_username TEXT, actor_role TEXT, ip_address TEXT,
  call_id TEXT, conference_id TEXT, outcome TEXT NOT NULL,
  message TEXT, metadata TEXT, created_at TIMESTAMP NOT NULL)`); err != nil {
		t.Fatalf("schema: %v", err)
	}

	svc := NewService(NewSQLRepository(db))
	if err := svc.LogCallAction(context.Background(), CallAction{Action: ActionHangup, ActorUsername: "jdoe", CallID: "CA9"}, nil); err != nil {
		t.Fatalf("log: %v", err)
	}

	var action, callID, outcome string
	if err := db.QueryRow(`SELECT action, call_id, outcome FROM audit_events`).Scan(&action, &callID, &outcome); err != nil {
		t.Fatalf("select: %v", err)
	}
	if action != "hangup" || callID != "CA9" || outcome != "succeeded" {
		t.Fatalf("unexpected row %s %s %s", action, callID, outcome)
	}
}
