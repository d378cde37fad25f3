package calls

import (
	"context"
	"strings"

	"telecom-bridge/internal/apperr"
)

// Store is the call log persistence contract.
//
// Upsert merge rules, applied atomically per CallID:
//   - first sight inserts the row (absent optional fields stay null, status
//     defaults to initiated);
//   - status, duration, recording URL, participant ID, conference ID and
//     timestamp are overwritten when present in the update;
//   - direction, from and to only fill a stored null;
//   - anything absent from the update keeps its stored value.
//
// Applying the same update twice yields the same row as applying it once.
type Store interface {
	Upsert(ctx context.Context, u CallUpdate) (CallRecord, error)

	// AttachConferenceRecording sets the recording on every leg of a
	// conference and returns how many legs were touched.
	AttachConferenceRecording(ctx context.Context, conferenceID, recordingURL string, durationSeconds *int) (int64, error)

	Get(ctx context.Context, callID string) (CallRecord, error)
}

func validateUpdate(u CallUpdate) error {
	if strings.TrimSpace(u.CallID) == "" {
		return apperr.Validation("calls.upsert", "call_id required")
	}
	if u.Status != "" {
		if _, ok := ParseStatus(string(u.Status)); !ok {
			return apperr.Validation("calls.upsert", "unknown status %q", u.Status)
		}
	}
	if u.DurationSeconds != nil && *u.DurationSeconds < 0 {
		return apperr.Validation("calls.upsert", "negative duration")
	}
	return nil
}

func validateConferenceRecording(conferenceID, recordingURL string) error {
	if strings.TrimSpace(conferenceID) == "" {
		return apperr.Validation("calls.attach_recording", "conference_id required")
	}
	if strings.TrimSpace(recordingURL) == "" {
		return apperr.Validation("calls.attach_recording", "recording_url required")
	}
	return nil
}
