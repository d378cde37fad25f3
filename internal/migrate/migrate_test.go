package migrate

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"telecom-bridge/internal/audit"
	"telecom-bridge/internal/calls"
	"telecom-bridge/internal/directory"

	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUp_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	applied, err := Up(ctx, db, quiet)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	want := []string{"0001_call_logs", "0002_directory", "0003_audit_events"}
	if !reflect.DeepEqual(applied, want) {
		t.Fatalf("applied %v, want %v", applied, want)
	}

	applied, err = Up(ctx, db, quiet)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected nothing applied on rerun, got %v", applied)
	}
}

func TestUp_SchemaServesRepositories(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	if _, err := Up(ctx, db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := calls.NewSQLRepository(db).Upsert(ctx, calls.CallUpdate{CallID: "CA1", ConferenceID: "CF1"}); err != nil {
		t.Fatalf("call log upsert: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO phone_assignments VALUES ('+15553334444', 'Assigned', 'jdoe')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a, ok, err := directory.NewSQLRepository(db).FindAssignment(ctx, "+15553334444")
	if err != nil || !ok || a.AssignedUser != "jdoe" {
		t.Fatalf("assignment lookup: %+v ok=%v err=%v", a, ok, err)
	}
	svc := audit.NewService(audit.NewSQLRepository(db))
	if err := svc.LogCallAction(ctx, audit.CallAction{Action: audit.ActionHangup, CallID: "CA1"}, nil); err != nil {
		t.Fatalf("audit append: %v", err)
	}
}

func TestStatements(t *testing.T) {
	got := statements("CREATE TABLE a (x INT);\n\n CREATE INDEX i ON a (x);\n")
	if len(got) != 2 || got[1] != "CREATE INDEX i ON a (x)" {
		t.Fatalf("unexpected split %q", got)
	}
}
