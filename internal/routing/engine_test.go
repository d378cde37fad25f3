package routing

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"telecom-bridge/internal/apperr"
	"telecom-bridge/internal/directory"
)

func TestResolver_AssignedUserBeatsRingGroup(t *testing.T) {
	dir := directory.NewMemoryRepo()
	dir.Assignments["+15553334444"] = directory.Assignment{PhoneNumber: "+15553334444", Status: "Assigned", AssignedUser: "jdoe"}
	dir.RingGroups["+15553334444"] = directory.RingGroup{PhoneNumber: "+15553334444", GroupName: "sales"}

	res, err := NewResolver(dir).ResolveJoin(context.Background(), "+15551112222", "+15553334444")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Target != (AssignedUser{Username: "jdoe"}) {
		t.Fatalf("expected assigned user, got %#v", res.Target)
	}
	// The ring group lookup is skipped once the assignment resolves.
	want := []string{"lead:+15551112222", "assignment:+15553334444"}
	if !reflect.DeepEqual(dir.Lookups, want) {
		t.Fatalf("unexpected lookups %v", dir.Lookups)
	}
}

func TestResolver_UnassignedStatusFallsBackToRingGroup(t *testing.T) {
	dir := directory.NewMemoryRepo()
	dir.Assignments["+1999"] = directory.Assignment{PhoneNumber: "+1999", Status: "unassigned", AssignedUser: "old"}
	dir.RingGroups["+1999"] = directory.RingGroup{PhoneNumber: "+1999", GroupName: "support", DisplayName: "Support"}

	target, err := NewResolver(dir).ResolveTarget(context.Background(), "+1999")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if target != (RingGroup{GroupName: "support", DisplayName: "Support"}) {
		t.Fatalf("expected ring group, got %#v", target)
	}
}

func TestResolver_NoMatchIsUnassigned(t *testing.T) {
	res, err := NewResolver(directory.NewMemoryRepo()).ResolveJoin(context.Background(), "+1", "+2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Target.Kind() != TargetUnassigned {
		t.Fatalf("expected unassigned, got %v", res.Target.Kind())
	}
	if res.Lead != nil {
		t.Fatalf("expected no lead")
	}
}

func TestResolver_LeadIsInformational(t *testing.T) {
	dir := directory.NewMemoryRepo()
	dir.Leads["+1"] = directory.Lead{ID: "L1", PhoneNumber: "+1", Name: "Ada"}

	res, err := NewResolver(dir).ResolveJoin(context.Background(), "+1", "+2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Lead == nil || res.Lead.ID != "L1" {
		t.Fatalf("expected lead attached, got %+v", res.Lead)
	}
	if res.Target.Kind() != TargetUnassigned {
		t.Fatalf("lead must not change routing, got %v", res.Target.Kind())
	}
}

func TestResolver_StoreFailureIsNotUnassigned(t *testing.T) {
	dir := directory.NewMemoryRepo()
	dir.Err = apperr.Store("directory.find_assignment", errors.New("connection reset"))

	_, err := NewResolver(dir).ResolveJoin(context.Background(), "+1", "+2")
	if !errors.Is(err, apperr.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := NewResolver(dir).ResolveTarget(context.Background(), "+2"); !errors.Is(err, apperr.ErrStore) {
		t.Fatalf("expected store error from ResolveTarget, got %v", err)
	}
}
