package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strconv"
	"strings"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlDial struct {
	XMLName    xml.Name         `xml:"Dial"`
	Conference *twimlConference `xml:"Conference,omitempty"`
}

type twimlConference struct {
	Name                   string `xml:",chardata"`
	StartConferenceOnEnter string `xml:"startConferenceOnEnter,attr,omitempty"`
	EndConferenceOnExit    string `xml:"endConferenceOnExit,attr,omitempty"`
	Beep                   string `xml:"beep,attr,omitempty"`
	Record                 string `xml:"record,attr,omitempty"`
	StatusCallback         string `xml:"statusCallback,attr,omitempty"`
	StatusCallbackEvent    string `xml:"statusCallbackEvent,attr,omitempty"`
	StatusCallbackMethod   string `xml:"statusCallbackMethod,attr,omitempty"`
	RecordingCallback      string `xml:"recordingStatusCallback,attr,omitempty"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	Digits  string   `xml:"digits,attr"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// ConferenceOptions controls the <Conference> noun.
type ConferenceOptions struct {
	StartOnEnter bool
	EndOnExit    bool
	Record       bool

	// StatusCallback receives participant-join/leave and conference-end
	// events. RecordingCallback receives conference recordings.
	StatusCallback    string
	RecordingCallback string
}

// ConferenceTwiML returns TwiML that joins the call to the named conference.
func ConferenceTwiML(name string, opts ConferenceOptions) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("telephony: conference name required")
	}
	conf := &twimlConference{
		Name:                   name,
		StartConferenceOnEnter: strconv.FormatBool(opts.StartOnEnter),
		EndConferenceOnExit:    strconv.FormatBool(opts.EndOnExit),
		Beep:                   "false",
	}
	if opts.Record {
		conf.Record = "record-from-start"
		conf.RecordingCallback = opts.RecordingCallback
	}
	if opts.StatusCallback != "" {
		conf.StatusCallback = opts.StatusCallback
		conf.StatusCallbackEvent = "start end join leave hold"
		conf.StatusCallbackMethod = "POST"
	}
	return render(twimlDial{Conference: conf})
}

// DigitsThenRedirectTwiML plays DTMF digits and then fetches new TwiML from
// redirectURL. Valid digits are 0-9, *, # and w (half-second pause).
func DigitsThenRedirectTwiML(digits, redirectURL string) (string, error) {
	if digits == "" {
		return "", errors.New("telephony: digits required")
	}
	for _, r := range digits {
		if !strings.ContainsRune("0123456789*#wW", r) {
			return "", errors.New("telephony: invalid digit " + strconv.QuoteRune(r))
		}
	}
	if strings.TrimSpace(redirectURL) == "" {
		return "", errors.New("telephony: redirect url required")
	}
	return render(
		twimlPlay{Digits: digits},
		twimlRedirect{Method: "POST", URL: redirectURL},
	)
}

func render(verbs ...any) (string, error) {
	r := twimlResponse{Verbs: verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
