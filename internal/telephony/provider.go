package telephony

import "context"

// CallControl is the provider-agnostic call-control capability used by
// business logic.
//
// Rules:
//   - No provider REST calls outside telephony adapters.
//   - Every error is a definite failure of that operation; callers must not
//     retry silently.
type CallControl interface {
	// SetParticipantHold puts a conference participant on hold (true) or
	// resumes it (false).
	SetParticipantHold(ctx context.Context, conferenceID, callID string, hold bool) error

	// DialOut places a new call and returns its call id. connectURL serves the
	// TwiML the callee hears once answered.
	DialOut(ctx context.Context, from, to, connectURL string) (string, error)

	// AddParticipantToConference moves an existing call into conferenceID by
	// redirecting it to connectURL, which must serve the conference join TwiML.
	AddParticipantToConference(ctx context.Context, conferenceID, callID, connectURL string) error

	// UpdateCallStatus changes a live call's status and optionally redirects
	// it to new TwiML.
	UpdateCallStatus(ctx context.Context, callID, status, redirectURL string) error

	RemoveParticipant(ctx context.Context, conferenceID, callID string) error

	// PlayDigitsThenRedirect plays DTMF digits on the call, then continues
	// with the TwiML at redirectURL.
	PlayDigitsThenRedirect(ctx context.Context, callID, digits, redirectURL string) error
}
