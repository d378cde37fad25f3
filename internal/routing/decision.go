package routing

// Target is the routing decision for one event: exactly one of
// AssignedUser, RingGroup or Unassigned. It is derived per event and never
// persisted.
type Target interface {
	Kind() TargetKind
	isTarget()
}

type TargetKind string

const (
	TargetAssignedUser TargetKind = "assigned_user"
	TargetRingGroup    TargetKind = "ring_group"
	TargetUnassigned   TargetKind = "unassigned"
)

// AssignedUser routes to one agent.
type AssignedUser struct {
	Username string `json:"username"`
}

// RingGroup routes to the agents sharing a published number.
type RingGroup struct {
	GroupName   string `json:"group_name"`
	DisplayName string `json:"display_name,omitempty"`
}

// Unassigned routes to the generic queue.
type Unassigned struct{}

func (AssignedUser) Kind() TargetKind { return TargetAssignedUser }
func (RingGroup) Kind() TargetKind    { return TargetRingGroup }
func (Unassigned) Kind() TargetKind   { return TargetUnassigned }

func (AssignedUser) isTarget() {}
func (RingGroup) isTarget()    {}
func (Unassigned) isTarget()   {}

// LeadReference enriches a notification with the caller's CRM record.
// It never influences the Target.
type LeadReference struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
}

// Resolution is the output of ResolveJoin.
type Resolution struct {
	Target Target
	Lead   *LeadReference
}
