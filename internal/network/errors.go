package network

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for structural problems in a scheduling network. The typed
// errors below match them with errors.Is.
var (
	// ErrDanglingReference is returned when an activity references an id
	// that is not part of the same collection.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrCycle is returned when the dependency relation is not acyclic.
	ErrCycle = errors.New("dependency cycle")

	// ErrDuplicateID is returned when two nodes share an id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidActivity is returned for empty ids and numeric fields that
	// are negative, NaN or infinite.
	ErrInvalidActivity = errors.New("invalid activity")
)

// DanglingReferenceError names the missing id and the node referencing it.
type DanglingReferenceError struct {
	ID    string // referencing activity
	Field string // predecessors, from, to
	Ref   string // id that does not exist
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("activity %q: %s references unknown id %q", e.ID, e.Field, e.Ref)
}

func (e *DanglingReferenceError) Is(target error) bool { return target == ErrDanglingReference }

// CycleError carries one cycle through the graph. Path starts and ends with
// the same id.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// DuplicateIDError names an id that appears more than once.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate id %q", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// InvalidActivityError names the offending activity field.
type InvalidActivityError struct {
	ID     string
	Field  string
	Reason string
}

func (e *InvalidActivityError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid activity: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("activity %q: %s %s", e.ID, e.Field, e.Reason)
}

func (e *InvalidActivityError) Is(target error) bool { return target == ErrInvalidActivity }

// IsStructural reports whether err is one of the structural errors that abort
// a computation.
func IsStructural(err error) bool {
	return errors.Is(err, ErrDanglingReference) ||
		errors.Is(err, ErrCycle) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrInvalidActivity)
}
