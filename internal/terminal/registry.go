package terminal

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitqst/kubecli-sub000/internal/logging"
)

// Options configures a Registry instance.
type Options struct {
	Shell      string // optional shell override; empty means platform policy
	Backend    string // "native" or "portable"
	DefaultCwd string // default working directory; empty means user home
	Cols       int    // initial columns for new sessions
	Rows       int    // initial rows for new sessions

	// NewAdapter overrides adapter construction, mainly for tests.
	NewAdapter func() Adapter
}

// OpenOptions carries the per-session working directory and environment
// overlay supplied at open time.
type OpenOptions struct {
	Cwd string
	Env map[string]string
}

// Registry owns the id->(adapter, detector) map. It is the single
// mutual-exclusion point for open/close and the only holder of process
// handles; consumers reach processes exclusively through its
// operations.
type Registry struct {
	log  *logging.Logger
	opts Options

	mu       sync.RWMutex // Lock serializes open/close; RLock guards lookups
	sessions map[string]*session
}

// NewRegistry creates an empty registry. Construct once and pass by
// reference; multiple independent instances are supported.
func NewRegistry(log *logging.Logger, opts Options) *Registry {
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 24
	}
	if opts.NewAdapter == nil {
		backend := opts.Backend
		opts.NewAdapter = func() Adapter { return NewAdapter(backend) }
	}
	return &Registry{
		log:      log,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// Open spawns a shell on a pseudo-terminal and registers it under id.
// An empty id gets a generated one; the registered id is returned.
// Returns *DuplicateSessionError when the id is live (no side effects)
// and *SpawnError when the process cannot start (never registered).
func (r *Registry) Open(ctx context.Context, id string, opts OpenOptions) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return "", &DuplicateSessionError{ID: id}
	}

	cwd := opts.Cwd
	if cwd == "" {
		cwd = r.opts.DefaultCwd
	}
	if cwd == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cwd = home
		}
	}

	shell := resolveShell(r.opts.Shell)
	adapter := r.opts.NewAdapter()
	sess := newSession(id, cwd, opts.Env, r.opts.Cols, r.opts.Rows, adapter)

	adapter.OnData(sess.enqueue)
	adapter.OnExit(sess.finish)

	err := adapter.Start(ctx, SpawnSpec{
		Shell: shell,
		Cwd:   cwd,
		Env:   opts.Env,
		Cols:  r.opts.Cols,
		Rows:  r.opts.Rows,
	})
	if err != nil {
		return "", &SpawnError{Shell: shell, Err: err}
	}

	r.sessions[id] = sess
	go sess.dispatch()

	r.log.Info("session opened", zap.String("id", id), zap.String("shell", shell), zap.String("cwd", cwd))
	return id, nil
}

// Write forwards text to the session's stdin. Writes against an exited
// process are swallowed and logged; the grid already shows the
// process's own exit text.
func (r *Registry) Write(id string, text string) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	exited := sess.exited
	sess.mu.Unlock()
	if exited {
		r.log.Debug("write to exited session swallowed", zap.String("id", id))
		return nil
	}

	if _, err := sess.adapter.Write([]byte(text)); err != nil {
		r.log.Debug("write failed, session likely exiting", zap.String("id", id), zap.Error(err))
	}
	return nil
}

// Resize forwards new dimensions best-effort. Requests with a
// non-positive dimension are no-ops; failures against exited sessions
// are expected during teardown races and only logged at debug level.
func (r *Registry) Resize(id string, cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return nil
	}

	sess, err := r.lookup(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	exited := sess.exited
	sess.mu.Unlock()
	if exited {
		r.log.Debug("resize on exited session ignored", zap.String("id", id))
		return nil
	}

	if err := sess.adapter.Resize(cols, rows); err != nil {
		r.log.Debug("resize failed", zap.String("id", id), zap.Error(err))
		return nil
	}

	sess.mu.Lock()
	sess.cols, sess.rows = cols, rows
	sess.mu.Unlock()
	return nil
}

// Signal sends an OS signal to the session's process group.
func (r *Registry) Signal(id string, sig os.Signal) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}
	return sess.adapter.Signal(sig)
}

// Close terminates the process, releases detector state, and removes
// the entry. Idempotent: a second call is a no-op, and it never fails
// with writes or resizes in flight.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()

	if err := sess.adapter.Kill(); err != nil {
		r.log.Debug("kill during close", zap.String("id", id), zap.Error(err))
	}
	sess.detector.Reset()

	r.log.Info("session closed", zap.String("id", id))
	return nil
}

// CloseAll tears down every live session; used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		_ = r.Close(id)
	}
}

// Subscribe registers callbacks for a session's data, exit, and
// edit-mode events. Recent output is replayed to the new subscriber
// synchronously. The returned func unsubscribes.
func (r *Registry) Subscribe(id string, sub Subscriber) (func(), error) {
	sess, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.subscribe(sub), nil
}

// Info returns a snapshot of one session.
func (r *Registry) Info(id string) (SessionInfo, error) {
	sess, err := r.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return sess.info(), nil
}

// Sessions returns snapshots of all registered sessions.
func (r *Registry) Sessions() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]SessionInfo, 0, len(r.sessions))
	for _, sess := range r.sessions {
		infos = append(infos, sess.info())
	}
	return infos
}

func (r *Registry) lookup(id string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, &UnknownSessionError{ID: id}
	}
	return sess, nil
}
