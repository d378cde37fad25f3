package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"telecom-bridge/internal/apperr"
)

// NOTE: This repository assumes a call_logs table with a UNIQUE constraint
// on call_id. Columns: call_id, conference_id, status, direction,
// from_number, to_number, duration_seconds, recording_url, participant_id,
// occurred_at. The statements run unchanged on Postgres (pgx) and SQLite.

// SQLRepository implements Store on database/sql.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const callColumns = `call_id, conference_id, status, direction, from_number, to_number,
       duration_seconds, recording_url, participant_id, occurred_at`

// upsertCallQuery is the single conditional insert-or-update statement that
// serializes concurrent deliveries for the same call_id.
// $3 is repeated so an absent status never replaces the stored one.
const upsertCallQuery = `
INSERT INTO call_logs (
  call_id, conference_id, status, direction, from_number, to_number,
  duration_seconds, recording_url, participant_id, occurred_at
) VALUES (
  $1, $2, COALESCE(CAST($3 AS TEXT), 'initiated'), $4, $5, $6, $7, $8, $9, $10
)
ON CONFLICT (call_id) DO UPDATE SET
  conference_id    = COALESCE(EXCLUDED.conference_id, call_logs.conference_id),
  status           = COALESCE(CAST($3 AS TEXT), call_logs.status),
  direction        = COALESCE(call_logs.direction, EXCLUDED.direction),
  from_number      = COALESCE(call_logs.from_number, EXCLUDED.from_number),
  to_number        = COALESCE(call_logs.to_number, EXCLUDED.to_number),
  duration_seconds = COALESCE(EXCLUDED.duration_seconds, call_logs.duration_seconds),
  recording_url    = COALESCE(EXCLUDED.recording_url, call_logs.recording_url),
  participant_id   = COALESCE(EXCLUDED.participant_id, call_logs.participant_id),
  occurred_at      = COALESCE(EXCLUDED.occurred_at, call_logs.occurred_at)
RETURNING ` + callColumns

func (r *SQLRepository) Upsert(ctx context.Context, u CallUpdate) (CallRecord, error) {
	if err := validateUpdate(u); err != nil {
		return CallRecord{}, err
	}
	rec, err := scanCall(r.db.QueryRowContext(ctx, upsertCallQuery,
		u.CallID,
		nullString(u.ConferenceID),
		nullString(string(u.Status)),
		nullString(string(u.Direction)),
		nullString(u.From),
		nullString(u.To),
		nullInt(u.DurationSeconds),
		nullString(u.RecordingURL),
		nullString(u.ParticipantID),
		nullTime(u.Timestamp),
	))
	if err != nil {
		return CallRecord{}, apperr.Store("calls.upsert", err)
	}
	return rec, nil
}

func (r *SQLRepository) AttachConferenceRecording(ctx context.Context, conferenceID, recordingURL string, durationSeconds *int) (int64, error) {
	if err := validateConferenceRecording(conferenceID, recordingURL); err != nil {
		return 0, err
	}
	const q = `
UPDATE call_logs
SET recording_url = $2,
    duration_seconds = COALESCE($3, duration_seconds)
WHERE conference_id = $1
`
	res, err := r.db.ExecContext(ctx, q, conferenceID, recordingURL, nullInt(durationSeconds))
	if err != nil {
		return 0, apperr.Store("calls.attach_recording", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Store("calls.attach_recording", err)
	}
	return n, nil
}

func (r *SQLRepository) Get(ctx context.Context, callID string) (CallRecord, error) {
	q := `SELECT ` + callColumns + ` FROM call_logs WHERE call_id = $1`
	rec, err := scanCall(r.db.QueryRowContext(ctx, q, callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, apperr.NotFound("calls.get", err)
		}
		return CallRecord{}, apperr.Store("calls.get", err)
	}
	return rec, nil
}

func scanCall(row *sql.Row) (CallRecord, error) {
	var (
		rec           CallRecord
		conferenceID  sql.NullString
		status        sql.NullString
		direction     sql.NullString
		from, to      sql.NullString
		duration      sql.NullInt64
		recordingURL  sql.NullString
		participantID sql.NullString
		occurredAt    sql.NullTime
	)
	if err := row.Scan(
		&rec.CallID,
		&conferenceID,
		&status,
		&direction,
		&from,
		&to,
		&duration,
		&recordingURL,
		&participantID,
		&occurredAt,
	); err != nil {
		return CallRecord{}, err
	}
	rec.ConferenceID = conferenceID.String
	rec.Status = CallStatus(status.String)
	rec.Direction = Direction(direction.String)
	rec.From = from.String
	rec.To = to.String
	rec.RecordingURL = recordingURL.String
	rec.ParticipantID = participantID.String
	if duration.Valid {
		d := int(duration.Int64)
		rec.DurationSeconds = &d
	}
	if occurredAt.Valid {
		ts := occurredAt.Time.UTC()
		rec.Timestamp = &ts
	}
	return rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
