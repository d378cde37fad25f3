package telephony

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// WebhookPayload captures the voice webhook fields we consume.
// Twilio sends application/x-www-form-urlencoded; every field is optional.
//
// Keep it provider-adapter-only. Business logic (routing decisions) is not
// made here.
type WebhookPayload struct {
	CallSid       string
	AccountSid    string
	ConferenceSid string
	FriendlyName  string

	From      string
	To        string
	Direction string
	Timestamp string

	CallStatus   string
	CallDuration string

	StatusCallbackEvent     string
	ReasonConferenceEnded   string
	CallSidEndingConference string
	ParticipantLabel        string

	RecordingSid      string
	RecordingUrl      string
	RecordingDuration string
	RecordingStatus   string
}

// ParseWebhook reads the form body of a provider webhook.
func ParseWebhook(r *http.Request) (WebhookPayload, error) {
	if err := r.ParseForm(); err != nil {
		return WebhookPayload{}, err
	}
	return PayloadFromForm(r.Form), nil
}

func PayloadFromForm(v url.Values) WebhookPayload {
	get := func(k string) string { return strings.TrimSpace(v.Get(k)) }
	return WebhookPayload{
		CallSid:                 get("CallSid"),
		AccountSid:              get("AccountSid"),
		ConferenceSid:           get("ConferenceSid"),
		FriendlyName:            get("FriendlyName"),
		From:                    get("From"),
		To:                      get("To"),
		Direction:               get("Direction"),
		Timestamp:               get("Timestamp"),
		CallStatus:              get("CallStatus"),
		CallDuration:            get("CallDuration"),
		StatusCallbackEvent:     get("StatusCallbackEvent"),
		ReasonConferenceEnded:   get("ReasonConferenceEnded"),
		CallSidEndingConference: get("CallSidEndingConference"),
		ParticipantLabel:        get("ParticipantLabel"),
		RecordingSid:            get("RecordingSid"),
		RecordingUrl:            get("RecordingUrl"),
		RecordingDuration:       get("RecordingDuration"),
		RecordingStatus:         get("RecordingStatus"),
	}
}

// timestampLayouts are the formats seen in provider callbacks.
var timestampLayouts = []string{time.RFC1123Z, time.RFC1123, time.RFC3339}

// OccurredAt is the provider event time, or nil when absent or unparseable.
func (p WebhookPayload) OccurredAt() *time.Time {
	if p.Timestamp == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, p.Timestamp); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

// CallDurationSeconds is the reported call duration, or nil.
func (p WebhookPayload) CallDurationSeconds() *int { return parseSeconds(p.CallDuration) }

// RecordingDurationSeconds is the reported recording duration, or nil.
func (p WebhookPayload) RecordingDurationSeconds() *int { return parseSeconds(p.RecordingDuration) }

func parseSeconds(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
