package terminal

// Pty represents an active pseudo-terminal connection.
// It abstracts over the native (creack/pty) and portable (go-pty)
// backends so the monitor and adapter code stay backend-agnostic.
type Pty interface {
	// Read reads data from the pseudo-terminal's output.
	Read(p []byte) (n int, err error)
	// Write writes data to the pseudo-terminal's input.
	Write(p []byte) (n int, err error)
	// Close closes the pseudo-terminal connection.
	Close() error
	// Resize changes the size of the pseudo-terminal. Some backends
	// cannot resize a live session; callers must tolerate this being a
	// no-op there.
	Resize(cols, rows int) error
}
