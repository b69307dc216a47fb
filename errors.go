package ormsupport

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors for the error taxonomy.
var (
	// ErrInvalidRange is returned when a period ends before it starts.
	ErrInvalidRange = errors.New("ormsupport: invalid range")

	// ErrInvalidArgument is returned for malformed year-month literals,
	// non-positive week or month counts and other caller mistakes.
	ErrInvalidArgument = errors.New("ormsupport: invalid argument")

	// ErrBranchOperation is returned when the query builder rejects an
	// operation on one branch of a composed query.
	ErrBranchOperation = errors.New("ormsupport: branch operation failed")
)

// RangeError represents a period whose end is before its start.
type RangeError struct {
	Start time.Time
	End   time.Time
}

// Error returns the error string.
func (e *RangeError) Error() string {
	return fmt.Sprintf("ormsupport: invalid range: end %s is before start %s",
		e.End.Format(time.DateTime), e.Start.Format(time.DateTime))
}

// Is reports whether the target error matches RangeError.
// This allows errors.Is(rangeErr, ErrInvalidRange) to return true.
func (e *RangeError) Is(err error) bool {
	return err == ErrInvalidRange
}

// NewRangeError returns a new RangeError for the given bounds.
func NewRangeError(start, end time.Time) *RangeError {
	return &RangeError{Start: start, End: end}
}

// IsInvalidRange returns true if the error is a RangeError.
func IsInvalidRange(err error) bool {
	if err == nil {
		return false
	}
	var e *RangeError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidRange)
}

// ArgumentError represents a malformed argument passed by the caller.
type ArgumentError struct {
	Name   string // Argument name
	Value  any    // Rejected value
	Reason string
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("ormsupport: invalid argument %s=%v: %s", e.Name, e.Value, e.Reason)
}

// Is reports whether the target error matches ArgumentError.
func (e *ArgumentError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// NewArgumentError returns a new ArgumentError.
func NewArgumentError(name string, value any, reason string) *ArgumentError {
	return &ArgumentError{Name: name, Value: value, Reason: reason}
}

// IsInvalidArgument returns true if the error is an ArgumentError.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgumentError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidArgument)
}

// BranchError wraps an error returned by the query builder for one branch
// of a composed query. Index 0 is the primary branch.
type BranchError struct {
	Index int    // Branch index
	Table string // Source table of the branch
	Op    string // Operation (e.g., "select", "where", "group by")
	Err   error  // Underlying builder error
}

// Error returns the error string.
func (e *BranchError) Error() string {
	return fmt.Sprintf("ormsupport: %s on branch %d (%s): %v", e.Op, e.Index, e.Table, e.Err)
}

// Is reports whether the target error matches BranchError.
func (e *BranchError) Is(err error) bool {
	return err == ErrBranchOperation
}

// Unwrap returns the underlying error.
func (e *BranchError) Unwrap() error {
	return e.Err
}

// Primary reports whether the failure happened on the primary branch,
// in which case no other branch was modified.
func (e *BranchError) Primary() bool {
	return e.Index == 0
}

// NewBranchError returns a new BranchError.
func NewBranchError(index int, table, op string, err error) *BranchError {
	return &BranchError{Index: index, Table: table, Op: op, Err: err}
}

// IsBranchError returns true if the error is a BranchError.
func IsBranchError(err error) bool {
	if err == nil {
		return false
	}
	var e *BranchError
	return errors.As(err, &e) || errors.Is(err, ErrBranchOperation)
}

// QueryError wraps an error returned while executing a composed query.
type QueryError struct {
	Table string // Base table being queried
	Op    string // Operation (e.g., "render", "query")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("ormsupport: querying %s (%s): %v", e.Table, e.Op, e.Err)
	}
	return fmt.Sprintf("ormsupport: querying %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(table, op string, err error) *QueryError {
	return &QueryError{Table: table, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}
