package reporting

import (
	"context"
	"sync"
	"time"

	"telecom-bridge/internal/audit"
	"telecom-bridge/internal/calls"
)

// MemoryRepo is a simple in-memory reporting repository for tests.
type MemoryRepo struct {
	mu sync.Mutex

	Calls   []calls.CallRecord
	Actions []audit.Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListCalls(ctx context.Context, from, to time.Time, direction calls.Direction) ([]calls.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.CallRecord, 0)
	for _, c := range r.Calls {
		if c.Timestamp == nil || !inRange(*c.Timestamp, from, to) {
			continue
		}
		if direction != "" && c.Direction != direction {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) ListCallActions(ctx context.Context, from, to time.Time, actorUsername string) ([]audit.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Event, 0)
	for _, e := range r.Actions {
		if !inRange(e.CreatedAt, from, to) {
			continue
		}
		if actorUsername != "" && e.ActorUsername != actorUsername {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// inRange is half-open: [from, to).
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
