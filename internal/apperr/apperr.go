package apperr

import (
	"errors"
	"fmt"
)

// Error kinds shared across packages. Match with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream provider error")
	ErrStore      = errors.New("store error")
)

// Error tags an underlying error with one of the kinds above and the
// operation that produced it.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation returns an ErrValidation error with a formatted detail.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

func NotFound(op string, err error) error {
	return &Error{Kind: ErrNotFound, Op: op, Err: err}
}

func Upstream(op string, err error) error {
	return &Error{Kind: ErrUpstream, Op: op, Err: err}
}

// Store wraps err as ErrStore. A nil err stays nil so callers can wrap the
// result of a repository call directly.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrStore, Op: op, Err: err}
}

// KindOf reports which kind err carries, or nil when none applies.
func KindOf(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrUpstream, ErrStore} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
