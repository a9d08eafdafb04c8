package terminal

import "fmt"

// SpawnError indicates the shell process could not be created. It is
// surfaced synchronously from Open; the session is never registered.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %q: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// DuplicateSessionError indicates the caller reused a live session id.
// Open fails without side effects.
type DuplicateSessionError struct {
	ID string
}

func (e *DuplicateSessionError) Error() string {
	return fmt.Sprintf("session %q already exists", e.ID)
}

// UnknownSessionError indicates an operation referenced a session id
// that is not registered.
type UnknownSessionError struct {
	ID string
}

func (e *UnknownSessionError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}
