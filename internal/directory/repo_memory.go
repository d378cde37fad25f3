package directory

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
// Err, when set, is returned by every lookup to simulate an unavailable store.
type MemoryRepo struct {
	mu sync.Mutex

	Leads       map[string]Lead
	Assignments map[string]Assignment
	RingGroups  map[string]RingGroup

	Err error

	// Lookups records the order of lookups performed, e.g. "lead:+1555".
	Lookups []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Leads:       map[string]Lead{},
		Assignments: map[string]Assignment{},
		RingGroups:  map[string]RingGroup{},
	}
}

func (r *MemoryRepo) FindLead(ctx context.Context, phoneNumber string) (Lead, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups = append(r.Lookups, "lead:"+phoneNumber)
	if r.Err != nil {
		return Lead{}, false, r.Err
	}
	l, ok := r.Leads[phoneNumber]
	return l, ok, nil
}

func (r *MemoryRepo) FindAssignment(ctx context.Context, phoneNumber string) (Assignment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups = append(r.Lookups, "assignment:"+phoneNumber)
	if r.Err != nil {
		return Assignment{}, false, r.Err
	}
	a, ok := r.Assignments[phoneNumber]
	return a, ok, nil
}

func (r *MemoryRepo) FindRingGroup(ctx context.Context, phoneNumber string) (RingGroup, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups = append(r.Lookups, "ring_group:"+phoneNumber)
	if r.Err != nil {
		return RingGroup{}, false, r.Err
	}
	g, ok := r.RingGroups[phoneNumber]
	return g, ok, nil
}
