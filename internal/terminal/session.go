package terminal

import (
	"sync"
	"time"
)

// replayBufSize bounds the per-session replay buffer. A surface that
// re-subscribes (remount, layout change) repaints from this instead of
// starting blank.
const replayBufSize = 100 * 1024

// Subscriber receives a session's events. Multiple subscribers per
// session are permitted; each receives chunks in emission order.
type Subscriber struct {
	OnData           func(chunk []byte)
	OnExit           func(exitCode int)
	OnEditModeChange func(active bool)
}

// SessionInfo is a public snapshot of a session's state.
type SessionInfo struct {
	ID        string
	Cwd       string
	Cols      int
	Rows      int
	EditMode  bool
	Exited    bool
	CreatedAt time.Time
}

// session pairs one adapter with one detector. The process handle is
// owned exclusively by the registry through the adapter; nothing else
// holds a reference to it.
type session struct {
	id        string
	adapter   Adapter
	detector  *Detector
	cwd       string
	env       map[string]string
	createdAt time.Time

	// dataCh is the ordered dispatch queue between the pty reader and
	// the fan-out goroutine. Closed exactly once, after the final chunk.
	dataCh chan []byte

	mu            sync.Mutex
	cols, rows    int
	exited        bool
	exitCode      int
	exitDelivered bool
	closed        bool

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int

	replayMu sync.Mutex
	replay   []byte
}

func newSession(id, cwd string, env map[string]string, cols, rows int, adapter Adapter) *session {
	s := &session{
		id:        id,
		adapter:   adapter,
		cwd:       cwd,
		env:       env,
		createdAt: time.Now(),
		cols:      cols,
		rows:      rows,
		dataCh:    make(chan []byte, 256),
		subs:      make(map[int]Subscriber),
	}
	s.detector = NewDetector(s.fanoutEditMode)
	return s
}

func (s *session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:        s.id,
		Cwd:       s.cwd,
		Cols:      s.cols,
		Rows:      s.rows,
		EditMode:  s.detector.Active(),
		Exited:    s.exited,
		CreatedAt: s.createdAt,
	}
}

// enqueue is the adapter's data callback. The adapter guarantees no
// further calls once its exit notification fires, so sending on dataCh
// never races its close.
func (s *session) enqueue(chunk []byte) {
	s.dataCh <- chunk
}

// finish is the adapter's exit callback. All data chunks are already
// queued at this point; closing the channel lets the dispatcher drain
// them before delivering the exit event.
func (s *session) finish(exitCode int) {
	s.mu.Lock()
	s.exited = true
	s.exitCode = exitCode
	s.mu.Unlock()
	close(s.dataCh)
}

// dispatch delivers data in emission order, feeds the detector as a
// side-channel read, and emits the exit event exactly once after the
// final chunk. The replay append and the fan-out form one critical
// section under subMu: a subscriber arriving between them would
// otherwise see the in-flight chunk twice, once from the replay copy
// and once from the fan-out.
func (s *session) dispatch() {
	for chunk := range s.dataCh {
		s.detector.Scan(chunk)

		s.subMu.Lock()
		s.appendReplay(chunk)
		for _, sub := range s.subs {
			if sub.OnData != nil {
				sub.OnData(chunk)
			}
		}
		s.subMu.Unlock()
	}

	s.mu.Lock()
	code := s.exitCode
	s.exitDelivered = true
	s.mu.Unlock()
	s.fanoutExit(code)
}

func (s *session) appendReplay(chunk []byte) {
	s.replayMu.Lock()
	defer s.replayMu.Unlock()
	s.replay = append(s.replay, chunk...)
	if len(s.replay) > replayBufSize {
		s.replay = s.replay[len(s.replay)-replayBufSize:]
	}
}

func (s *session) replayCopy() []byte {
	s.replayMu.Lock()
	defer s.replayMu.Unlock()
	cp := make([]byte, len(s.replay))
	copy(cp, s.replay)
	return cp
}

func (s *session) fanoutExit(exitCode int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		if sub.OnExit != nil {
			sub.OnExit(exitCode)
		}
	}
}

func (s *session) fanoutEditMode(active bool) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		if sub.OnEditModeChange != nil {
			sub.OnEditModeChange(active)
		}
	}
}

// subscribe registers a subscriber, replays recent output to it, and
// returns an unsubscribe func. Holding subMu across the replay keeps it
// ordered against concurrent fan-out.
func (s *session) subscribe(sub Subscriber) func() {
	s.subMu.Lock()
	idx := s.nextSub
	s.nextSub++
	s.subs[idx] = sub

	if replay := s.replayCopy(); len(replay) > 0 && sub.OnData != nil {
		sub.OnData(replay)
	}
	s.mu.Lock()
	delivered, code := s.exitDelivered, s.exitCode
	s.mu.Unlock()
	if delivered && sub.OnExit != nil {
		sub.OnExit(code)
	}
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, idx)
		s.subMu.Unlock()
	}
}
