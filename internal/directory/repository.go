package directory

import (
	"context"
	"database/sql"
	"errors"

	"telecom-bridge/internal/apperr"
)

// Repository answers the single-key lookups the router needs.
// Each lookup returns (row, true, nil) when found and (zero, false, nil)
// when not. Duplicate rows for one number are not expected; if present an
// arbitrary one is returned.
type Repository interface {
	FindLead(ctx context.Context, phoneNumber string) (Lead, bool, error)
	FindAssignment(ctx context.Context, phoneNumber string) (Assignment, bool, error)
	FindRingGroup(ctx context.Context, phoneNumber string) (RingGroup, bool, error)
}

// NOTE: read-only. Assumes tables leads, phone_assignments and
// ring_groups, each indexed by phone_number.

// SQLRepository implements Repository on database/sql.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) FindLead(ctx context.Context, phoneNumber string) (Lead, bool, error) {
	const q = `
SELECT id, phone_number, COALESCE(name, ''), COALESCE(company, '')
FROM leads
WHERE phone_number = $1
LIMIT 1
`
	var l Lead
	err := r.db.QueryRowContext(ctx, q, phoneNumber).Scan(&l.ID, &l.PhoneNumber, &l.Name, &l.Company)
	return found("directory.find_lead", l, err)
}

func (r *SQLRepository) FindAssignment(ctx context.Context, phoneNumber string) (Assignment, bool, error) {
	const q = `
SELECT phone_number, COALESCE(status, ''), COALESCE(assigned_user, '')
FROM phone_assignments
WHERE phone_number = $1
LIMIT 1
`
	var a Assignment
	err := r.db.QueryRowContext(ctx, q, phoneNumber).Scan(&a.PhoneNumber, &a.Status, &a.AssignedUser)
	return found("directory.find_assignment", a, err)
}

func (r *SQLRepository) FindRingGroup(ctx context.Context, phoneNumber string) (RingGroup, bool, error) {
	const q = `
SELECT phone_number, group_name, COALESCE(display_name, '')
FROM ring_groups
WHERE phone_number = $1
LIMIT 1
`
	var g RingGroup
	err := r.db.QueryRowContext(ctx, q, phoneNumber).Scan(&g.PhoneNumber, &g.GroupName, &g.DisplayName)
	return found("directory.find_ring_group", g, err)
}

func found[T any](op string, v T, err error) (T, bool, error) {
	var zero T
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, apperr.Store(op, err)
	}
	return v, true, nil
}
