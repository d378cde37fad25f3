package dispatch

import (
	"context"
	"errors"
	"fmt"

	"telecom-bridge/internal/events"
	"telecom-bridge/internal/routing"
)

// Dispatcher turns a routed event into exactly one bus message.
// It holds no state besides the bus and is safe for concurrent use.
type Dispatcher struct {
	bus events.Bus
}

func NewDispatcher(bus events.Bus) *Dispatcher {
	return &Dispatcher{bus: bus}
}

// Join notifies about a participant joining.
func (d *Dispatcher) Join(ctx context.Context, call events.CallInfo, res routing.Resolution) error {
	m, err := JoinMessage(call, res)
	if err != nil {
		return err
	}
	return d.publish(ctx, m)
}

// StatusUpdate notifies about a non-terminal call status change.
func (d *Dispatcher) StatusUpdate(ctx context.Context, call events.CallInfo, status string, target routing.Target) error {
	return d.publish(ctx, StatusMessage(call, status, target))
}

// Leave and ConferenceEnd are broadcast to fixed channels without routing.
func (d *Dispatcher) Leave(ctx context.Context, call events.CallInfo) error {
	return d.publish(ctx, events.ParticipantLeave{CallInfo: call})
}

func (d *Dispatcher) ConferenceEnd(ctx context.Context, conferenceSid, reason, endingCallSid string) error {
	return d.publish(ctx, events.ConferenceEnd{
		ConferenceSid:           conferenceSid,
		Reason:                  reason,
		CallSidEndingConference: endingCallSid,
	})
}

func (d *Dispatcher) OutboundStatus(ctx context.Context, call events.CallInfo, status string, durationSeconds *int) error {
	return d.publish(ctx, events.OutboundCallStatus{CallInfo: call, Status: status, DurationSeconds: durationSeconds})
}

func (d *Dispatcher) publish(ctx context.Context, m events.Message) error {
	if d.bus == nil {
		return errors.New("dispatch: bus not configured")
	}
	if err := d.bus.Publish(ctx, m); err != nil {
		return fmt.Errorf("dispatch: publish %s: %w", m.Channel(), err)
	}
	return nil
}

// JoinMessage maps a join resolution onto its message.
func JoinMessage(call events.CallInfo, res routing.Resolution) (events.Message, error) {
	switch t := res.Target.(type) {
	case routing.AssignedUser:
		return events.UserNotification{Username: t.Username, CallInfo: call, Lead: res.Lead}, nil
	case routing.RingGroup:
		return events.RingGroupNotification{GroupName: t.GroupName, DisplayName: t.DisplayName, CallInfo: call, Lead: res.Lead}, nil
	case routing.Unassigned, nil:
		return events.IncomingCall{CallInfo: call, Lead: res.Lead}, nil
	default:
		return nil, fmt.Errorf("dispatch: unknown routing target %T", res.Target)
	}
}

// StatusMessage maps a status update onto its message. Ring groups have no
// status channel and fall back to the generic one.
func StatusMessage(call events.CallInfo, status string, target routing.Target) events.Message {
	if u, ok := target.(routing.AssignedUser); ok {
		return events.UserCallStatus{Username: u.Username, CallInfo: call, Status: status}
	}
	return events.CallStatusUpdate{CallInfo: call, Status: status}
}
