package events

import (
	tea "github.com/charmbracelet/bubbletea"
)

// SessionDataMsg carries a chunk of process output from the registry's
// dispatch goroutine into the bubbletea event loop.
type SessionDataMsg struct {
	ID   string
	Data []byte
}

// SessionExitMsg is sent once when the session's process exits.
type SessionExitMsg struct {
	ID       string
	ExitCode int
}

// EditModeMsg is sent when the edit-mode detector flips state for a
// session. Emitted only on actual transitions, never as a duplicate.
type EditModeMsg struct {
	ID     string
	Active bool
}

// OverlayMsg toggles the opaque "updating environment" overlay on the
// display surface.
type OverlayMsg struct {
	ID      string
	Visible bool
}

// GridClearMsg asks the surface to clear its visible buffer.
type GridClearMsg struct {
	ID string
}

// StatusLinesMsg carries informational status lines written into the
// grid in a single batch (not through the shell).
type StatusLinesMsg struct {
	ID    string
	Lines []string
}

// EnvUpdateDoneMsg signals that an environment update sequence has
// finished (overlay already hidden) and reports its outcome.
type EnvUpdateDoneMsg struct {
	ID  string
	Err error
}

// QuitMsg asks the surface to tear down its session and stop the
// program. Sent by the quit command so shutdown follows the same path
// as the quit keybinding.
type QuitMsg struct{}

// Compile-time check that every message satisfies tea.Msg.
var (
	_ tea.Msg = SessionDataMsg{}
	_ tea.Msg = SessionExitMsg{}
	_ tea.Msg = EditModeMsg{}
	_ tea.Msg = OverlayMsg{}
	_ tea.Msg = GridClearMsg{}
	_ tea.Msg = StatusLinesMsg{}
	_ tea.Msg = EnvUpdateDoneMsg{}
	_ tea.Msg = QuitMsg{}
)
