package terminal

import (
	"context"
	"errors"
	"os"
	"sync"

	gopty "github.com/aymanbagabas/go-pty"
	pkgerrors "github.com/pkg/errors"

	"github.com/vitqst/kubecli-sub000/pkg/utils"
)

// portableAdapter runs the process under go-pty, which covers platforms
// the native backend does not. Resize after spawn may be a no-op on
// some of them; callers already tolerate that.
type portableAdapter struct {
	mu      sync.Mutex
	pty     gopty.Pty
	cmd     *gopty.Cmd
	monitor *Monitor
	stopped bool

	onData   func([]byte)
	onExit   func(int)
	exitOnce sync.Once
}

func newPortableAdapter() *portableAdapter {
	return &portableAdapter{}
}

func (a *portableAdapter) OnData(fn func([]byte)) { a.onData = fn }
func (a *portableAdapter) OnExit(fn func(int))    { a.onExit = fn }

func (a *portableAdapter) Start(ctx context.Context, spec SpawnSpec) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cmd != nil {
		return errors.New("adapter already started")
	}

	ptmx, err := gopty.New()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open pty")
	}
	// Initial size is best effort on this backend.
	_ = ptmx.Resize(spec.Cols, spec.Rows)

	cmd := ptmx.CommandContext(ctx, spec.Shell, spec.Args...)
	cmd.Dir = spec.Cwd
	cmd.Env = utils.MergeEnv(os.Environ(), spec.Env)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	if err := cmd.Start(); err != nil {
		_ = ptmx.Close()
		return pkgerrors.Wrap(err, "failed to start process")
	}

	a.pty = ptmx
	a.cmd = cmd
	a.monitor = NewMonitor(&portablePty{pty: ptmx}, a.emitData)
	a.monitor.Start()

	go a.waitCmd()

	return nil
}

func (a *portableAdapter) emitData(chunk []byte) {
	if a.onData != nil {
		a.onData(chunk)
	}
}

func (a *portableAdapter) waitCmd() {
	_ = a.cmd.Wait()

	a.mu.Lock()
	if !a.stopped {
		a.stopped = true
		_ = a.pty.Close()
	}
	a.mu.Unlock()

	<-a.monitor.Done()

	code := exitCode(a.cmd.ProcessState, nil)
	a.exitOnce.Do(func() {
		if a.onExit != nil {
			a.onExit(code)
		}
	})
}

func (a *portableAdapter) Write(p []byte) (int, error) {
	a.mu.Lock()
	ptmx := a.pty
	stopped := a.stopped
	a.mu.Unlock()
	if ptmx == nil || stopped {
		return 0, errors.New("adapter not running")
	}
	return ptmx.Write(p)
}

func (a *portableAdapter) Resize(cols, rows int) error {
	a.mu.Lock()
	ptmx := a.pty
	stopped := a.stopped
	a.mu.Unlock()
	if ptmx == nil || stopped {
		return errors.New("adapter not running")
	}
	return ptmx.Resize(cols, rows)
}

func (a *portableAdapter) Kill() error {
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
	if err := a.pty.Close(); err != nil && firstErr == nil {
		firstErr = pkgerrors.Wrap(err, "failed to close pty")
	}
	return firstErr
}

func (a *portableAdapter) Signal(sig os.Signal) error {
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

// portablePty adapts a go-pty handle to the Pty interface.
type portablePty struct {
	pty gopty.Pty
}

func (w *portablePty) Read(p []byte) (int, error)  { return w.pty.Read(p) }
func (w *portablePty) Write(p []byte) (int, error) { return w.pty.Write(p) }
func (w *portablePty) Close() error                { return w.pty.Close() }
func (w *portablePty) Resize(cols, rows int) error { return w.pty.Resize(cols, rows) }
