package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLRepository appends audit events to the audit_events table.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, type, action, actor_username, actor_role, ip_address,
  call_id, conference_id, outcome, message, metadata, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		string(e.Action),
		nullString(e.ActorUsername),
		nullString(e.ActorRole),
		nullString(e.IPAddress),
		nullString(e.CallID),
		nullString(e.ConferenceID),
		string(e.Outcome),
		nullString(e.Message),
		nullString(e.Metadata),
		e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
