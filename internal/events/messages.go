package events

import "telecom-bridge/internal/routing"

// Channel names consumed by the presentation layer.
const (
	ChannelRingGroupNotification = "ring-group-notification"
	ChannelIncomingCall          = "incoming-call"
	ChannelCallStatusUpdate      = "call-status-update"
	ChannelParticipantLeave      = "participant-leave"
	ChannelConferenceEnd         = "conference-end"
	ChannelOutboundCallStatus    = "outbound-call-status"

	userNotificationPrefix = "user-notification-"
	userCallStatusPrefix   = "user-call-status-"
)

func UserNotificationChannel(username string) string { return userNotificationPrefix + username }
func UserCallStatusChannel(username string) string   { return userCallStatusPrefix + username }

// Message is the closed set of payloads the bus carries. Each variant knows
// its own channel.
type Message interface {
	Channel() string
	isMessage()
}

// CallInfo identifies the call a message is about.
type CallInfo struct {
	CallSid       string `json:"callSid,omitempty"`
	ConferenceSid string `json:"conferenceSid,omitempty"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
}

// UserNotification tells one agent a call on their number joined.
type UserNotification struct {
	Username string `json:"username"`
	CallInfo
	Lead *routing.LeadReference `json:"lead,omitempty"`
}

// UserCallStatus tells one agent a call on their number changed status.
type UserCallStatus struct {
	Username string `json:"username"`
	CallInfo
	Status string `json:"status"`
}

type RingGroupNotification struct {
	GroupName   string `json:"groupName"`
	DisplayName string `json:"displayName,omitempty"`
	CallInfo
	Lead *routing.LeadReference `json:"lead,omitempty"`
}

// IncomingCall is a join on a number nobody owns.
type IncomingCall struct {
	CallInfo
	Lead *routing.LeadReference `json:"lead,omitempty"`
}

type CallStatusUpdate struct {
	CallInfo
	Status string `json:"status"`
}

type ParticipantLeave struct {
	CallInfo
}

type ConferenceEnd struct {
	ConferenceSid           string `json:"conferenceSid"`
	Reason                  string `json:"reason,omitempty"`
	CallSidEndingConference string `json:"callSidEndingConference,omitempty"`
}

// OutboundCallStatus reports progress of a call this service dialed.
type OutboundCallStatus struct {
	CallInfo
	Status          string `json:"status"`
	DurationSeconds *int   `json:"durationSeconds,omitempty"`
}

func (m UserNotification) Channel() string    { return UserNotificationChannel(m.Username) }
func (m UserCallStatus) Channel() string      { return UserCallStatusChannel(m.Username) }
func (RingGroupNotification) Channel() string { return ChannelRingGroupNotification }
func (IncomingCall) Channel() string          { return ChannelIncomingCall }
func (CallStatusUpdate) Channel() string      { return ChannelCallStatusUpdate }
func (ParticipantLeave) Channel() string      { return ChannelParticipantLeave }
func (ConferenceEnd) Channel() string         { return ChannelConferenceEnd }
func (OutboundCallStatus) Channel() string    { return ChannelOutboundCallStatus }

func (UserNotification) isMessage()      {}
func (UserCallStatus) isMessage()        {}
func (RingGroupNotification) isMessage() {}
func (IncomingCall) isMessage()          {}
func (CallStatusUpdate) isMessage()      {}
func (ParticipantLeave) isMessage()      {}
func (ConferenceEnd) isMessage()         {}
func (OutboundCallStatus) isMessage()    {}
