package terminal

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	pkgerrors "github.com/pkg/errors"

	"github.com/vitqst/kubecli-sub000/pkg/utils"
)

// SpawnSpec describes the single process an adapter runs.
type SpawnSpec struct {
	Shell string
	Args  []string
	Cwd   string
	Env   map[string]string // overlaid on the parent environment
	Cols  int
	Rows  int
}

// Adapter spawns exactly one process attached to a pseudo-terminal and
// exposes write/resize/kill plus raw output and exit callbacks. It is a
// pure conduit: no buffering policy, no transformation. Callbacks must
// be registered before Start.
type Adapter interface {
	Start(ctx context.Context, spec SpawnSpec) error
	Write(p []byte) (n int, err error)
	Resize(cols, rows int) error
	Kill() error
	Signal(sig os.Signal) error
	OnData(fn func(chunk []byte))
	OnExit(fn func(exitCode int))
}

// NewAdapter returns an adapter for the named backend. Unknown backend
// names fall back to the native one.
func NewAdapter(backend string) Adapter {
	if backend == "portable" {
		return newPortableAdapter()
	}
	return newNativeAdapter()
}

// nativeAdapter runs the process under creack/pty. This backend
// supports resizing a live session.
type nativeAdapter struct {
	mu      sync.Mutex
	ptmx    *os.File
	cmd     *exec.Cmd
	monitor *Monitor
	stopped bool

	onData   func([]byte)
	onExit   func(int)
	exitOnce sync.Once
}

func newNativeAdapter() *nativeAdapter {
	return &nativeAdapter{}
}

func (a *nativeAdapter) OnData(fn func([]byte)) { a.onData = fn }
func (a *nativeAdapter) OnExit(fn func(int))    { a.onExit = fn }

func (a *nativeAdapter) Start(ctx context.Context, spec SpawnSpec) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cmd != nil {
		return errors.New("adapter already started")
	}

	cmd := exec.CommandContext(ctx, spec.Shell, spec.Args...)
	cmd.Dir = spec.Cwd
	cmd.Env = utils.MergeEnv(os.Environ(), spec.Env)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(spec.Rows),
		Cols: uint16(spec.Cols),
	})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to start pty")
	}

	a.cmd = cmd
	a.ptmx = ptmx
	a.monitor = NewMonitor(&nativePty{file: ptmx}, a.emitData)
	a.monitor.Start()

	go a.waitCmd()

	return nil
}

func (a *nativeAdapter) emitData(chunk []byte) {
	if a.onData != nil {
		a.onData(chunk)
	}
}

// waitCmd waits for the process to exit, then lets the monitor drain
// so every data chunk is delivered before the exit notification.
func (a *nativeAdapter) waitCmd() {
	err := a.cmd.Wait()

	a.mu.Lock()
	if !a.stopped {
		a.stopped = true
		_ = a.ptmx.Close()
	}
	a.mu.Unlock()

	<-a.monitor.Done()

	code := exitCode(a.cmd.ProcessState, err)
	a.exitOnce.Do(func() {
		if a.onExit != nil {
			a.onExit(code)
		}
	})
}

func (a *nativeAdapter) Write(p []byte) (int, error) {
	a.mu.Lock()
	ptmx := a.ptmx
	stopped := a.stopped
	a.mu.Unlock()
	if ptmx == nil || stopped {
		return 0, errors.New("adapter not running")
	}
	return ptmx.Write(p)
}

func (a *nativeAdapter) Resize(cols, rows int) error {
	a.mu.Lock()
	ptmx := a.ptmx
	stopped := a.stopped
	a.mu.Unlock()
	if ptmx == nil || stopped {
		return errors.New("adapter not running")
	}
	return pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Kill terminates the process and closes the pty. Idempotent.
func (a *nativeAdapter) Kill() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || a.cmd == nil {
		return nil
	}
	a.stopped = true

	var firstErr error
	if a.cmd.Process != nil {
		if err := a.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			firstErr = pkgerrors.Wrap(err, "failed to kill process")
		}
	}
	if err := a.ptmx.Close(); err != nil && firstErr == nil {
		firstErr = pkgerrors.Wrap(err, "failed to close pty")
	}
	return firstErr
}

// Signal sends an OS signal to the process. On Unix-like systems this
// reaches the process group attached to the pty.
func (a *nativeAdapter) Signal(sig os.Signal) error {
	a.mu.Lock()
	cmd := a.cmd
	a.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return errors.New("process not running")
	}
	if err := cmd.Process.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return err
	}
	return nil
}

// nativePty adapts the creack/pty master file to the Pty interface.
type nativePty struct {
	file *os.File
}

func (w *nativePty) Read(p []byte) (int, error)  { return w.file.Read(p) }
func (w *nativePty) Write(p []byte) (int, error) { return w.file.Write(p) }
func (w *nativePty) Close() error                { return w.file.Close() }

func (w *nativePty) Resize(cols, rows int) error {
	return pty.Setsize(w.file, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// exitCode extracts the process exit code, -1 when indeterminate.
func exitCode(state *os.ProcessState, waitErr error) int {
	if state != nil {
		return state.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
