package directory

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"telecom-bridge/internal/apperr"

	_ "modernc.org/sqlite"
)

func openDirectoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	stmts := []string{
		`CREATE TABLE leads (id TEXT, phone_number TEXT, name TEXT, company TEXT)`,
		`CREATE TABLE phone_assignments (phone_number TEXT, status TEXT, assigned_user TEXT)`,
		`CREATE TABLE ring_groups (phone_number TEXT, group_name TEXT, display_name TEXT)`,
		`INSERT INTO leads VALUES ('lead-1', '+15551112222', 'Ada', NULL)`,
		`INSERT INTO phone_assignments VALUES ('+15553334444', 'Assigned', 'jdoe')`,
		`INSERT INTO ring_groups VALUES ('+15559990000', 'sales', 'Sales Team')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	r := NewSQLRepository(openDirectoryDB(t))

	l, ok, err := r.FindLead(ctx, "+15551112222")
	if err != nil || !ok {
		t.Fatalf("lead: ok=%v err=%v", ok, err)
	}
	if l.ID != "lead-1" || l.Name != "Ada" || l.Company != "" {
		t.Fatalf("unexpected lead %+v", l)
	}

	a, ok, err := r.FindAssignment(ctx, "+15553334444")
	if err != nil || !ok {
		t.Fatalf("assignment: ok=%v err=%v", ok, err)
	}
	if a.AssignedUser != "jdoe" || a.Status != "Assigned" {
		t.Fatalf("unexpected assignment %+v", a)
	}

	g, ok, err := r.FindRingGroup(ctx, "+15559990000")
	if err != nil || !ok {
		t.Fatalf("ring group: ok=%v err=%v", ok, err)
	}
	if g.GroupName != "sales" || g.DisplayName != "Sales Team" {
		t.Fatalf("unexpected ring group %+v", g)
	}

	if _, ok, err := r.FindAssignment(ctx, "+10000000000"); ok || err != nil {
		t.Fatalf("expected miss without error, ok=%v err=%v", ok, err)
	}
}

func TestSQLRepository_UnavailableStoreIsStoreError(t *testing.T) {
	db := openDirectoryDB(t)
	_ = db.Close()

	_, _, err := NewSQLRepository(db).FindRingGroup(context.Background(), "+15559990000")
	if !errors.Is(err, apperr.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}
