package tui

import (
	"context"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitqst/kubecli-sub000/internal/commands"
	"github.com/vitqst/kubecli-sub000/internal/logging"
	"github.com/vitqst/kubecli-sub000/internal/terminal"
	"github.com/vitqst/kubecli-sub000/pkg/events"
)

// stubAdapter satisfies terminal.Adapter for surface tests; only the
// write path is recorded.
type stubAdapter struct {
	writes []string
}

func (s *stubAdapter) Start(ctx context.Context, spec terminal.SpawnSpec) error { return nil }
func (s *stubAdapter) Write(p []byte) (int, error) {
	s.writes = append(s.writes, string(p))
	return len(p), nil
}
func (s *stubAdapter) Resize(cols, rows int) error  { return nil }
func (s *stubAdapter) Kill() error                  { return nil }
func (s *stubAdapter) Signal(sig os.Signal) error   { return nil }
func (s *stubAdapter) OnData(fn func([]byte))       {}
func (s *stubAdapter) OnExit(fn func(int))          {}

func newTestSurface(t *testing.T) (*Model, *stubAdapter) {
	t.Helper()
	stub := &stubAdapter{}
	reg := terminal.NewRegistry(logging.NewNop(), terminal.Options{
		NewAdapter: func() terminal.Adapter { return stub },
	})
	_, err := reg.Open(context.Background(), "t1", terminal.OpenOptions{})
	require.NoError(t, err)

	m := New(reg, commands.NewRegistry(), logging.NewNop(), "t1", "", nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, stub
}

func TestSurfaceRendersSessionData(t *testing.T) {
	m, _ := newTestSurface(t)

	m.Update(events.SessionDataMsg{ID: "t1", Data: []byte("hello from shell\n")})

	assert.Contains(t, m.View(), "hello from shell")
}

func TestSurfaceIgnoresOtherSessions(t *testing.T) {
	m, _ := newTestSurface(t)

	m.Update(events.SessionDataMsg{ID: "other", Data: []byte("leaked\n")})

	assert.NotContains(t, m.View(), "leaked")
}

func TestSurfaceShowsExitNotice(t *testing.T) {
	m, _ := newTestSurface(t)

	m.Update(events.SessionExitMsg{ID: "t1", ExitCode: 2})

	view := m.View()
	assert.Contains(t, view, "exited with code 2")
	assert.Contains(t, view, "session ended")
}

func TestSurfaceOverlayHidesGrid(t *testing.T) {
	m, _ := newTestSurface(t)
	m.Update(events.SessionDataMsg{ID: "t1", Data: []byte("secret state\n")})

	m.Update(events.OverlayMsg{ID: "t1", Visible: true})
	assert.NotContains(t, m.View(), "secret state")
	assert.Contains(t, m.View(), "updating environment")

	m.Update(events.OverlayMsg{ID: "t1", Visible: false})
	assert.Contains(t, m.View(), "secret state")
}

func TestSurfaceClearAndStatusBatch(t *testing.T) {
	m, _ := newTestSurface(t)
	m.Update(events.SessionDataMsg{ID: "t1", Data: []byte("old output\n")})

	m.Update(events.GridClearMsg{ID: "t1"})
	assert.NotContains(t, m.View(), "old output")

	m.Update(events.StatusLinesMsg{ID: "t1", Lines: []string{"Updating NAMESPACE=prod"}})
	assert.Contains(t, m.View(), "Updating NAMESPACE=prod")
}

func TestSurfaceEditModeBadge(t *testing.T) {
	m, _ := newTestSurface(t)

	m.Update(events.EditModeMsg{ID: "t1", Active: true})
	assert.Contains(t, m.View(), "[editor]")

	m.Update(events.EditModeMsg{ID: "t1", Active: false})
	assert.NotContains(t, m.View(), "[editor]")
}

func TestSurfaceForwardsKeystrokes(t *testing.T) {
	m, stub := newTestSurface(t)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ls")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"ls", "\r"}, stub.writes)
}

func TestSurfaceDropsKeysAfterExit(t *testing.T) {
	m, stub := newTestSurface(t)

	m.Update(events.SessionExitMsg{ID: "t1", ExitCode: 0})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.Empty(t, stub.writes)
}
