package reporting

import (
	"context"
	"database/sql"
	"time"

	"telecom-bridge/internal/audit"
	"telecom-bridge/internal/calls"
)

// SQLRepository reads call_logs and audit_events.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) ListCalls(ctx context.Context, from, to time.Time, direction calls.Direction) ([]calls.CallRecord, error) {
	q := `
SELECT call_id, COALESCE(conference_id, ''), status, COALESCE(direction, ''),
       duration_seconds, COALESCE(recording_url, '')
FROM call_logs
WHERE occurred_at >= $1 AND occurred_at < $2`
	args := []any{from.UTC(), to.UTC()}
	if direction != "" {
		q += ` AND direction = $3`
		args = append(args, string(direction))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]calls.CallRecord, 0)
	for rows.Next() {
		var (
			c        calls.CallRecord
			status   string
			dir      string
			duration sql.NullInt64
		)
		if err := rows.Scan(&c.CallID, &c.ConferenceID, &status, &dir, &duration, &c.RecordingURL); err != nil {
			return nil, err
		}
		c.Status = calls.CallStatus(status)
		c.Direction = calls.Direction(dir)
		if duration.Valid {
			d := int(duration.Int64)
			c.DurationSeconds = &d
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepository) ListCallActions(ctx context.Context, from, to time.Time, actorUsername string) ([]audit.Event, error) {
	q := `
SELECT id, type, action, COALESCE(actor_username, ''), outcome, created_at
FROM audit_events
WHERE created_at >= $1 AND created_at < $2`
	args := []any{from.UTC(), to.UTC()}
	if actorUsername != "" {
		q += ` AND actor_username = $3`
		args = append(args, actorUsername)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Event, 0)
	for rows.Next() {
		var (
			e                    audit.Event
			typ, action, outcome string
		)
		if err := rows.Scan(&e.ID, &typ, &action, &e.ActorUsername, &outcome, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = audit.EventType(typ)
		e.Action = audit.Action(action)
		e.Outcome = audit.Outcome(outcome)
		out = append(out, e)
	}
	return out, rows.Err()
}
