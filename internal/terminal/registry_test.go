package terminal

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitqst/kubecli-sub000/internal/logging"
)

// fakeAdapter records every interaction and lets tests drive output and
// exit events by hand.
type fakeAdapter struct {
	mu       sync.Mutex
	spec     SpawnSpec
	writes   []string
	resizes  [][2]int
	signals  []os.Signal
	exited   bool
	startErr error
	writeErr error

	onData func([]byte)
	onExit func(int)
}

func (f *fakeAdapter) Start(ctx context.Context, spec SpawnSpec) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.spec = spec
	f.mu.Unlock()
	return nil
}

func (f *fakeAdapter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, string(p))
	return len(p), nil
}

func (f *fakeAdapter) Resize(cols, rows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{cols, rows})
	return nil
}

func (f *fakeAdapter) Kill() error {
	f.emitExit(-1)
	return nil
}

func (f *fakeAdapter) Signal(sig os.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, sig)
	return nil
}

func (f *fakeAdapter) OnData(fn func([]byte)) { f.onData = fn }
func (f *fakeAdapter) OnExit(fn func(int))    { f.onExit = fn }

func (f *fakeAdapter) emitData(s string) {
	f.onData([]byte(s))
}

// emitExit delivers the exit notification at most once, matching the
// real adapters' guarantee.
func (f *fakeAdapter) emitExit(code int) {
	f.mu.Lock()
	if f.exited || f.onExit == nil {
		f.mu.Unlock()
		return
	}
	f.exited = true
	fn := f.onExit
	f.mu.Unlock()
	fn(code)
}

func (f *fakeAdapter) recordedWrites() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.writes...)
}

func newTestRegistry(fake *fakeAdapter) *Registry {
	return NewRegistry(logging.NewNop(), Options{
		Shell: "/bin/sh",
		Cols:  80,
		Rows:  24,
		NewAdapter: func() Adapter {
			return fake
		},
	})
}

func TestOpenGeneratesIDAndSpawnsWithFit(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	info, err := r.Info(id)
	require.NoError(t, err)
	assert.Equal(t, 80, info.Cols)
	assert.Equal(t, 24, info.Rows)
	assert.Equal(t, "/bin/sh", fake.spec.Shell)
}

func TestOpenRejectsDuplicateID(t *testing.T) {
	r := newTestRegistry(&fakeAdapter{})

	_, err := r.Open(context.Background(), "term-1", OpenOptions{})
	require.NoError(t, err)

	_, err = r.Open(context.Background(), "term-1", OpenOptions{})
	var dup *DuplicateSessionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "term-1", dup.ID)
}

func TestOpenSpawnFailureLeavesNoEntry(t *testing.T) {
	fake := &fakeAdapter{startErr: errors.New("no such shell")}
	r := newTestRegistry(fake)

	_, err := r.Open(context.Background(), "term-1", OpenOptions{})
	var spawn *SpawnError
	require.ErrorAs(t, err, &spawn)
	assert.Empty(t, r.Sessions())

	// The id is reusable after a failed spawn.
	fake.startErr = nil
	_, err = r.Open(context.Background(), "term-1", OpenOptions{})
	assert.NoError(t, err)
}

func TestWriteUnknownSession(t *testing.T) {
	r := newTestRegistry(&fakeAdapter{})

	err := r.Write("nope", "ls\n")
	var unknown *UnknownSessionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.ID)
}

func TestWriteForwardsToAdapter(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	require.NoError(t, r.Write(id, "kubectl get pods\n"))
	assert.Equal(t, []string{"kubectl get pods\n"}, fake.recordedWrites())
}

func TestWriteAfterExitIsSwallowed(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	fake.emitExit(0)

	require.NoError(t, r.Write(id, "echo hello\n"))
	assert.Empty(t, fake.recordedWrites())
}

func TestResizeIgnoresNonPositiveDimensions(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	require.NoError(t, r.Resize(id, 0, 24))
	require.NoError(t, r.Resize(id, 80, -1))
	assert.Empty(t, fake.resizes)
}

func TestResizeUpdatesDimensions(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	require.NoError(t, r.Resize(id, 120, 40))
	info, err := r.Info(id)
	require.NoError(t, err)
	assert.Equal(t, 120, info.Cols)
	assert.Equal(t, 40, info.Rows)
}

func TestSignalForwardsToAdapter(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	require.NoError(t, r.Signal(id, os.Interrupt))
	assert.Equal(t, []os.Signal{os.Interrupt}, fake.signals)
}

func TestCloseIsIdempotentAndEmitsOneExit(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	exits := make(chan int, 4)
	_, err = r.Subscribe(id, Subscriber{OnExit: func(code int) { exits <- code }})
	require.NoError(t, err)

	require.NoError(t, r.Close(id))
	require.NoError(t, r.Close(id)) // second close is a no-op

	select {
	case <-exits:
	case <-time.After(time.Second):
		t.Fatal("no exit event after close")
	}
	select {
	case <-exits:
		t.Fatal("exit event delivered twice")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Empty(t, r.Sessions())
	var unknown *UnknownSessionError
	assert.ErrorAs(t, r.Write(id, "x"), &unknown)
}

func TestSubscribeReplaysRecentOutput(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	// First subscriber confirms the dispatcher has processed the chunk.
	seen := make(chan []byte, 1)
	_, err = r.Subscribe(id, Subscriber{OnData: func(b []byte) { seen <- b }})
	require.NoError(t, err)

	fake.emitData("$ kubectl get ns\n")
	select {
	case <-seen:
	case <-time.After(time.Second):
		t.Fatal("chunk never dispatched")
	}

	var replayed []byte
	_, err = r.Subscribe(id, Subscriber{OnData: func(b []byte) { replayed = append(replayed, b...) }})
	require.NoError(t, err)
	assert.Equal(t, "$ kubectl get ns\n", string(replayed))
}

func TestLateSubscriberReceivesExit(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	first := make(chan int, 1)
	_, err = r.Subscribe(id, Subscriber{OnExit: func(code int) { first <- code }})
	require.NoError(t, err)

	fake.emitExit(3)
	select {
	case code := <-first:
		assert.Equal(t, 3, code)
	case <-time.After(time.Second):
		t.Fatal("exit never dispatched")
	}

	// A subscriber arriving after exit delivery still learns about it.
	var late int
	lateSeen := false
	_, err = r.Subscribe(id, Subscriber{OnExit: func(code int) { late, lateSeen = code, true }})
	require.NoError(t, err)
	assert.True(t, lateSeen)
	assert.Equal(t, 3, late)
}

func TestDataDeliveredInOrderBeforeExit(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	_, err = r.Subscribe(id, Subscriber{
		OnData: func(b []byte) {
			mu.Lock()
			got = append(got, string(b))
			mu.Unlock()
		},
		OnExit: func(int) { close(done) },
	})
	require.NoError(t, err)

	fake.emitData("one")
	fake.emitData("two")
	fake.emitData("three")
	fake.emitExit(0)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("exit never delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestSubscribeDuringStreamingNeverDuplicates(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	const chunks = 400

	go func() {
		for i := 0; i < chunks; i++ {
			fake.emitData(fmt.Sprintf("|chunk-%d|", i))
		}
		fake.emitExit(0)
	}()

	// Subscribers arriving mid-stream get the replay synchronously and
	// the rest via fan-out; no chunk may reach one of them both ways.
	type stream struct {
		data []byte
		done chan struct{}
	}
	var streams []*stream
	for i := 0; i < 50; i++ {
		st := &stream{done: make(chan struct{})}
		_, err := r.Subscribe(id, Subscriber{
			OnData: func(b []byte) { st.data = append(st.data, b...) },
			OnExit: func(int) { close(st.done) },
		})
		require.NoError(t, err)
		streams = append(streams, st)
	}

	for _, st := range streams {
		select {
		case <-st.done:
		case <-time.After(5 * time.Second):
			t.Fatal("stream never finished")
		}
	}

	for _, st := range streams {
		text := string(st.data)
		for i := 0; i < chunks; i++ {
			token := fmt.Sprintf("|chunk-%d|", i)
			if n := strings.Count(text, token); n > 1 {
				t.Fatalf("chunk %d delivered %d times (replay + fan-out)", i, n)
			}
		}
	}
}

func TestEditModeEventsReachSubscribers(t *testing.T) {
	fake := &fakeAdapter{}
	r := newTestRegistry(fake)

	id, err := r.Open(context.Background(), "", OpenOptions{})
	require.NoError(t, err)

	modes := make(chan bool, 4)
	_, err = r.Subscribe(id, Subscriber{OnEditModeChange: func(active bool) { modes <- active }})
	require.NoError(t, err)

	fake.emitData("\x1b[?1049h")
	select {
	case active := <-modes:
		assert.True(t, active)
	case <-time.After(time.Second):
		t.Fatal("no edit-mode event")
	}

	fake.emitData("\x1b[?1049l")
	select {
	case active := <-modes:
		assert.False(t, active)
	case <-time.After(time.Second):
		t.Fatal("no edit-mode exit event")
	}
}
