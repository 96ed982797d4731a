package task

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a blank title was passed to a mutation that
	// requires non-empty text.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates an update targeted an ID that does not exist,
	// usually because it raced with a delete.
	ErrNotFound = errors.New("task not found")

	// ErrClosed indicates the store or coordinator has been shut down.
	ErrClosed = errors.New("closed")
)

// Error carries the failing operation and task ID alongside one of the
// sentinel errors above (or a storage error).
type Error struct {
	// Op is the operation name, e.g. "create", "update".
	Op string

	// ID is the task ID the operation targeted. Zero for create.
	ID int64

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s task %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s task: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause so errors.Is sees the sentinel.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with operation context.
func NewError(op string, id int64, err error) *Error {
	return &Error{Op: op, ID: id, Err: err}
}

// IsNotFound returns true if err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true if err wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// TaskID extracts the task ID from an *Error anywhere in the chain.
// Returns false if err carries no task context.
func TaskID(err error) (int64, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.ID, true
	}
	return 0, false
}
