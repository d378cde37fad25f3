package calls

import "testing"

func TestParseStatus(t *testing.T) {
	cases := map[string]CallStatus{
		"queued":      CallStatusInitiated,
		"ringing":     CallStatusRinging,
		"in-progress": CallStatusInProgress,
		"in_progress": CallStatusInProgress,
		"Completed":   CallStatusCompleted,
		"no-answer":   CallStatusNoAnswer,
		"held":        CallStatusPaused,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseStatus("exploded"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestCallStatus_IsTerminal(t *testing.T) {
	if !CallStatusCompleted.IsTerminal() || !CallStatusNoAnswer.IsTerminal() {
		t.Fatalf("expected terminal")
	}
	if CallStatusRinging.IsTerminal() || CallStatusPaused.IsTerminal() {
		t.Fatalf("expected non-terminal")
	}
}

func TestParseDirection(t *testing.T) {
	if d, ok := ParseDirection("outbound-api"); !ok || d != DirectionOutbound {
		t.Fatalf("expected outbound, got %q", d)
	}
	if d, ok := ParseDirection("inbound"); !ok || d != DirectionInbound {
		t.Fatalf("expected inbound, got %q", d)
	}
	if _, ok := ParseDirection(""); ok {
		t.Fatalf("expected empty direction rejected")
	}
}
