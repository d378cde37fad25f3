package calls

import (
	"context"
	"errors"
	"sync"

	"telecom-bridge/internal/apperr"
)

// MemoryRepo is an in-memory Store with the same merge rules as
// SQLRepository. Useful for tests and local runs without a database.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]CallRecord
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: map[string]CallRecord{}} }

func (r *MemoryRepo) Upsert(ctx context.Context, u CallUpdate) (CallRecord, error) {
	if err := validateUpdate(u); err != nil {
		return CallRecord{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.rows[u.CallID]
	if !ok {
		rec = CallRecord{CallID: u.CallID, Status: CallStatusInitiated}
	}
	if u.Status != "" {
		rec.Status = u.Status
	}
	if u.ConferenceID != "" {
		rec.ConferenceID = u.ConferenceID
	}
	if u.DurationSeconds != nil {
		d := *u.DurationSeconds
		rec.DurationSeconds = &d
	}
	if u.RecordingURL != "" {
		rec.RecordingURL = u.RecordingURL
	}
	if u.ParticipantID != "" {
		rec.ParticipantID = u.ParticipantID
	}
	if u.Timestamp != nil {
		ts := u.Timestamp.UTC()
		rec.Timestamp = &ts
	}
	if rec.Direction == "" {
		rec.Direction = u.Direction
	}
	if rec.From == "" {
		rec.From = u.From
	}
	if rec.To == "" {
		rec.To = u.To
	}

	r.rows[u.CallID] = rec
	return copyRecord(rec), nil
}

func (r *MemoryRepo) AttachConferenceRecording(ctx context.Context, conferenceID, recordingURL string, durationSeconds *int) (int64, error) {
	if err := validateConferenceRecording(conferenceID, recordingURL); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, rec := range r.rows {
		if rec.ConferenceID != conferenceID {
			continue
		}
		rec.RecordingURL = recordingURL
		if durationSeconds != nil {
			d := *durationSeconds
			rec.DurationSeconds = &d
		}
		r.rows[id] = rec
		n++
	}
	return n, nil
}

func (r *MemoryRepo) Get(ctx context.Context, callID string) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[callID]
	if !ok {
		return CallRecord{}, apperr.NotFound("calls.get", errors.New("call "+callID))
	}
	return copyRecord(rec), nil
}

// Len returns the number of stored rows.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func copyRecord(rec CallRecord) CallRecord {
	out := rec
	if rec.DurationSeconds != nil {
		d := *rec.DurationSeconds
		out.DurationSeconds = &d
	}
	if rec.Timestamp != nil {
		ts := *rec.Timestamp
		out.Timestamp = &ts
	}
	return out
}
