package routing

import (
	"context"
	"errors"
	"strings"

	"telecom-bridge/internal/directory"
)

const assignmentStatusAssigned = "assigned"

// Resolver decides who should hear about a call, using the phone-number
// directory.
//
// Precedence for join-type events:
//  1. Lead by caller number (enrichment only)
//  2. Assigned user by callee number, when the assignment status is "assigned"
//  3. Ring group by callee number, only if 2 did not resolve
//  4. Unassigned
//
// A failing lookup is returned as-is (a store error); it is never turned
// into Unassigned. The resolver holds no state and is safe for concurrent use.
type Resolver struct {
	dir directory.Repository
}

func NewResolver(dir directory.Repository) *Resolver {
	return &Resolver{dir: dir}
}

// ResolveJoin runs the full precedence for a participant-join event.
func (r *Resolver) ResolveJoin(ctx context.Context, from, to string) (Resolution, error) {
	if r.dir == nil {
		return Resolution{}, errors.New("routing: directory not configured")
	}

	var res Resolution
	if from = strings.TrimSpace(from); from != "" {
		lead, ok, err := r.dir.FindLead(ctx, from)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			res.Lead = &LeadReference{ID: lead.ID, Name: lead.Name, Company: lead.Company}
		}
	}

	t, err := r.ResolveTarget(ctx, to)
	if err != nil {
		return Resolution{}, err
	}
	res.Target = t
	return res, nil
}

// ResolveTarget runs steps 2-4 only. Status updates use it directly.
func (r *Resolver) ResolveTarget(ctx context.Context, to string) (Target, error) {
	if r.dir == nil {
		return nil, errors.New("routing: directory not configured")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return Unassigned{}, nil
	}

	a, ok, err := r.dir.FindAssignment(ctx, to)
	if err != nil {
		return nil, err
	}
	if ok && strings.EqualFold(strings.TrimSpace(a.Status), assignmentStatusAssigned) && a.AssignedUser != "" {
		return AssignedUser{Username: a.AssignedUser}, nil
	}

	g, ok, err := r.dir.FindRingGroup(ctx, to)
	if err != nil {
		return nil, err
	}
	if ok && g.GroupName != "" {
		return RingGroup{GroupName: g.GroupName, DisplayName: g.DisplayName}, nil
	}

	return Unassigned{}, nil
}
