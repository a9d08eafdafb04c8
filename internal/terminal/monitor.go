package terminal

// Monitor reads from a Pty output and hands each chunk to a handler.
// It performs no buffering or transformation of its own; the handler
// receives a private copy of every chunk in read order.
type Monitor struct {
	pty     Pty
	handler func([]byte)
	done    chan struct{}
}

// NewMonitor creates a new terminal output monitor.
func NewMonitor(pty Pty, handler func([]byte)) *Monitor {
	return &Monitor{
		pty:     pty,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start begins monitoring the Pty output in a separate goroutine.
func (m *Monitor) Start() {
	go m.run()
}

// Done is closed once the read loop has exited (EOF, read error, or the
// pty being closed underneath it). Exit notification must wait for this
// so data chunks always precede the exit event.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// run is the main loop reading from the Pty until EOF or error. A pty
// read error after the child exits (EIO on Linux) is a normal end of
// stream, not a fault.
func (m *Monitor) run() {
	defer close(m.done)
	buf := make([]byte, 32*1024)
	for {
		n, err := m.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			m.handler(chunk)
		}
		if err != nil {
			return
		}
	}
}
