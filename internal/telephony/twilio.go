package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telecom-bridge/internal/apperr"

	"golang.org/x/time/rate"
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioClient implements CallControl against the Twilio-compatible REST API
// (form-encoded requests, HTTP basic auth with account SID and auth token).
type TwilioClient struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client

	// limiter paces outgoing requests; nil means unlimited.
	limiter *rate.Limiter

	// statusCallback receives lifecycle callbacks for calls placed by DialOut.
	statusCallback string
}

type TwilioOption func(*TwilioClient)

// WithBaseURL points the client at a compatible API (or a test server).
func WithBaseURL(u string) TwilioOption {
	return func(c *TwilioClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) TwilioOption {
	return func(c *TwilioClient) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst.
// Callers block until a token is available or ctx is done.
func WithRateLimit(rps float64, burst int) TwilioOption {
	return func(c *TwilioClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// outboundStatusEvents are the call progress events requested for dialed legs.
var outboundStatusEvents = []string{"initiated", "ringing", "answered", "completed"}

// WithStatusCallback makes every DialOut leg report its progress to u.
func WithStatusCallback(u string) TwilioOption {
	return func(c *TwilioClient) { c.statusCallback = u }
}

func NewTwilioClient(accountSID, authToken string, opts ...TwilioOption) *TwilioClient {
	c := &TwilioClient{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    defaultTwilioBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ CallControl = (*TwilioClient)(nil)

func (c *TwilioClient) Name() string { return "twilio" }

func (c *TwilioClient) SetParticipantHold(ctx context.Context, conferenceID, callID string, hold bool) error {
	const op = "telephony.set_participant_hold"
	if conferenceID == "" || callID == "" {
		return apperr.Validation(op, "conference_id and call_id required")
	}
	form := url.Values{}
	form.Set("Hold", strconv.FormatBool(hold))
	return c.do(ctx, op, http.MethodPost, c.participantPath(conferenceID, callID), form, nil)
}

func (c *TwilioClient) DialOut(ctx context.Context, from, to, connectURL string) (string, error) {
	const op = "telephony.dial_out"
	if from == "" || to == "" || connectURL == "" {
		return "", apperr.Validation(op, "from, to and connect url required")
	}
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Url", connectURL)
	form.Set("Method", http.MethodPost)
	if c.statusCallback != "" {
		form.Set("StatusCallback", c.statusCallback)
		form.Set("StatusCallbackMethod", http.MethodPost)
		for _, ev := range outboundStatusEvents {
			form.Add("StatusCallbackEvent", ev)
		}
	}

	var call twilioCall
	if err := c.do(ctx, op, http.MethodPost, c.accountPath("Calls.json"), form, &call); err != nil {
		return "", err
	}
	if call.SID == "" {
		return "", apperr.Upstream(op, errors.New("response carried no call sid"))
	}
	return call.SID, nil
}

func (c *TwilioClient) AddParticipantToConference(ctx context.Context, conferenceID, callID, connectURL string) error {
	const op = "telephony.add_participant"
	if conferenceID == "" || callID == "" || connectURL == "" {
		return apperr.Validation(op, "conference_id, call_id and connect url required")
	}
	form := url.Values{}
	form.Set("Url", connectURL)
	form.Set("Method", http.MethodPost)
	return c.do(ctx, op, http.MethodPost, c.callPath(callID), form, nil)
}

// UpdateCallStatus sends Status only for the values the provider accepts on
// a live call (completed, canceled); other statuses are reached through the
// redirect.
func (c *TwilioClient) UpdateCallStatus(ctx context.Context, callID, status, redirectURL string) error {
	const op = "telephony.update_call"
	if callID == "" {
		return apperr.Validation(op, "call_id required")
	}
	form := url.Values{}
	switch status {
	case "completed", "canceled":
		form.Set("Status", status)
	}
	if redirectURL != "" {
		form.Set("Url", redirectURL)
		form.Set("Method", http.MethodPost)
	}
	if len(form) == 0 {
		return apperr.Validation(op, "nothing to update for status %q", status)
	}
	return c.do(ctx, op, http.MethodPost, c.callPath(callID), form, nil)
}

func (c *TwilioClient) RemoveParticipant(ctx context.Context, conferenceID, callID string) error {
	const op = "telephony.remove_participant"
	if conferenceID == "" || callID == "" {
		return apperr.Validation(op, "conference_id and call_id required")
	}
	return c.do(ctx, op, http.MethodDelete, c.participantPath(conferenceID, callID), nil, nil)
}

func (c *TwilioClient) PlayDigitsThenRedirect(ctx context.Context, callID, digits, redirectURL string) error {
	const op = "telephony.play_digits"
	if callID == "" {
		return apperr.Validation(op, "call_id required")
	}
	twiml, err := DigitsThenRedirectTwiML(digits, redirectURL)
	if err != nil {
		return apperr.Validation(op, "%v", err)
	}
	form := url.Values{}
	form.Set("Twiml", twiml)
	return c.do(ctx, op, http.MethodPost, c.callPath(callID), form, nil)
}

type twilioCall struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *TwilioClient) accountPath(rest string) string {
	return fmt.Sprintf("%s/Accounts/%s/%s", c.baseURL, url.PathEscape(c.accountSID), rest)
}

func (c *TwilioClient) callPath(callID string) string {
	return c.accountPath("Calls/" + url.PathEscape(callID) + ".json")
}

func (c *TwilioClient) participantPath(conferenceID, callID string) string {
	return c.accountPath("Conferences/" + url.PathEscape(conferenceID) + "/Participants/" + url.PathEscape(callID) + ".json")
}

// do sends one request. A 404 maps to ErrNotFound; any other non-2xx or
// transport failure maps to ErrUpstream.
func (c *TwilioClient) do(ctx context.Context, op, method, endpoint string, form url.Values, out any) error {
	if c.accountSID == "" || c.authToken == "" {
		return apperr.Upstream(op, errors.New("twilio credentials not configured"))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperr.Upstream(op, fmt.Errorf("rate limit: %w", err))
		}
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return apperr.Upstream(op, fmt.Errorf("create request: %w", err))
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Upstream(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var te twilioError
		if json.Unmarshal(raw, &te) == nil && te.Message != "" {
			msg = te.Message
		}
		apiErr := fmt.Errorf("twilio API error (%d): %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusNotFound {
			return apperr.NotFound(op, apiErr)
		}
		return apperr.Upstream(op, apiErr)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Upstream(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
