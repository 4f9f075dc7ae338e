package storage

import "fmt"

// ValidationError reports a config that would break a stored invariant. The
// store state is left untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "storage: invalid config: " + e.Reason
}

// PersistenceError reports a failed backend write. The in-memory state is
// rolled back to the pre-mutation value before this error is returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage: persist failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
