package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent engine and bridge failures.
// These are distinct from infrastructure (storage I/O) errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState indicates an operation on a handle that cannot serve it.
	ErrInvalidState = errors.New("invalid state")

	// Cursor and handle errors. All of them match ErrInvalidState.

	// ErrEndOfSequence indicates a cursor was advanced or dereferenced at its end sentinel.
	ErrEndOfSequence = fmt.Errorf("%w: cursor at end of sequence", ErrInvalidState)

	// ErrBeforeBegin indicates a cursor was moved back past the first element.
	ErrBeforeBegin = fmt.Errorf("%w: cursor before beginning of sequence", ErrInvalidState)

	// ErrStaleHandle indicates the source of a cursor or page was mutated or closed.
	ErrStaleHandle = fmt.Errorf("%w: stale handle", ErrInvalidState)

	// ErrHandleReleased indicates a callback handle was invoked after its scope ended.
	ErrHandleReleased = fmt.Errorf("%w: callback handle released", ErrInvalidState)

	// Engine errors.

	// ErrDatabaseClosed indicates the database handle has been closed.
	ErrDatabaseClosed = errors.New("database is closed")

	// ErrDatabaseExists indicates a create-only open found an existing database.
	ErrDatabaseExists = fmt.Errorf("database %w", ErrAlreadyExists)

	// ErrDatabaseNotFound indicates an open-only call found no database.
	ErrDatabaseNotFound = fmt.Errorf("database %w", ErrNotFound)

	// ErrDocNotFound indicates no document exists with the requested id.
	ErrDocNotFound = fmt.Errorf("document %w", ErrNotFound)

	// ErrQuerySyntax indicates the query string could not be parsed.
	ErrQuerySyntax = errors.New("query syntax error")

	// ErrInvalidQuery indicates a query tree the matcher cannot evaluate.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrWildcardLimit indicates a wildcard expanded past its configured limit.
	ErrWildcardLimit = errors.New("wildcard expansion limit exceeded")

	// ErrInvalidWeight indicates a NaN or negative-infinity weight was produced.
	ErrInvalidWeight = errors.New("invalid weight")

	// ErrTransaction indicates a transaction was misused.
	ErrTransaction = errors.New("transaction error")

	// ErrCallback matches every *CallbackError.
	ErrCallback = errors.New("callback failed")
)

// CallbackError reports a failure raised by host code while the engine was
// dispatching into it. The whole engine operation fails with this error.
type CallbackError struct {
	Role   CallbackRole
	Handle string
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s callback %s: %v", e.Role, e.Handle, e.Err)
}

// Unwrap returns the host error.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCallback.
func (e *CallbackError) Is(target error) bool {
	return target == ErrCallback
}
