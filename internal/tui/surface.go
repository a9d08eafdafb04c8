package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vitqst/kubecli-sub000/internal/commands"
	"github.com/vitqst/kubecli-sub000/internal/logging"
	"github.com/vitqst/kubecli-sub000/internal/terminal"
	"github.com/vitqst/kubecli-sub000/pkg/events"
)

// chromeRows is the vertical space the header and footer take away
// from the grid when computing the pty fit.
const chromeRows = 2

// sessionOpenedMsg reports a successful open from the Init command.
type sessionOpenedMsg struct {
	id    string
	unsub func()
}

// openFailedMsg reports a failed open; the error text is written into
// the grid, which is the user-visible error surface.
type openFailedMsg struct {
	err error
}

// Model is the display surface: it renders session output into a
// scrollback grid, captures keystrokes and forwards them through the
// registry, and computes the pty fit from its own dimensions. It holds
// no process handle; every process interaction goes through registry
// operations.
type Model struct {
	registry *terminal.Registry
	commands *commands.Registry
	log      *logging.Logger

	id  string
	cwd string
	env map[string]string

	// ctx is the surface's cancellation token. Every async callback
	// checks it, so nothing fires against a surface that has begun
	// tearing down.
	ctx    context.Context
	cancel context.CancelFunc

	program *tea.Program
	unsub   func()

	grid     Grid
	viewport viewport.Model
	cmdInput textinput.Model
	sync     *Synchronizer

	width, height int
	ready         bool
	cmdMode       bool
	editMode      bool
	overlay       bool
	exited        bool

	titleStyle  lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
	badgeStyle  lipgloss.Style
}

// New creates a display surface for one session. The session is opened
// on Init and closed on teardown.
func New(registry *terminal.Registry, cmds *commands.Registry, log *logging.Logger, id, cwd string, env map[string]string) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Placeholder = "command (e.g. help, env NAMESPACE=prod)"
	ti.Prompt = "/ "
	ti.CharLimit = 256

	return &Model{
		registry:    registry,
		commands:    cmds,
		log:         log,
		id:          id,
		cwd:         cwd,
		env:         env,
		ctx:         ctx,
		cancel:      cancel,
		grid:        newLineGrid(),
		cmdInput:    ti,
		sync:        NewSynchronizer(registry, log),
		titleStyle:  lipgloss.NewStyle().Bold(true),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		badgeStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	}
}

// SetProgram injects the running program so subscription callbacks can
// push messages into the event loop. Must be called before Run.
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// SessionID returns the surface's session id; command implementations
// use this to target the active session.
func (m *Model) SessionID() string {
	return m.id
}

// GridText returns the plain-text scrollback; the grid's own lock makes
// this safe to call from command goroutines.
func (m *Model) GridText() string {
	return m.grid.Text()
}

// Fit computes integral columns and rows for the pty from the surface's
// cell dimensions, subtracting header and footer chrome.
func (m *Model) Fit(width, height int) (cols, rows int) {
	return width, height - chromeRows
}

// Init opens the session and subscribes to its events.
func (m *Model) Init() tea.Cmd {
	return m.openSession
}

func (m *Model) openSession() tea.Msg {
	id, err := m.registry.Open(m.ctx, m.id, terminal.OpenOptions{Cwd: m.cwd, Env: m.env})
	if err != nil {
		return openFailedMsg{err: err}
	}

	send := func(msg tea.Msg) {
		// Liveness guard: a torn-down surface ignores everything.
		if m.ctx.Err() != nil || m.program == nil {
			return
		}
		m.program.Send(msg)
	}

	unsub, err := m.registry.Subscribe(id, terminal.Subscriber{
		OnData: func(chunk []byte) {
			send(events.SessionDataMsg{ID: id, Data: chunk})
		},
		OnExit: func(exitCode int) {
			send(events.SessionExitMsg{ID: id, ExitCode: exitCode})
		},
		OnEditModeChange: func(active bool) {
			send(events.EditModeMsg{ID: id, Active: active})
		},
	})
	if err != nil {
		return openFailedMsg{err: err}
	}

	return sessionOpenedMsg{id: id, unsub: unsub}
}

// teardown cancels the liveness token, unsubscribes, and closes the
// session. Safe to call more than once.
func (m *Model) teardown() {
	m.cancel()
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
	if err := m.registry.Close(m.id); err != nil {
		m.log.Debug("close during teardown", zap.String("id", m.id), zap.Error(err))
	}
}

// Update handles terminal output, keystrokes, resize, and the overlay
// protocol messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionOpenedMsg:
		m.id = msg.id
		m.unsub = msg.unsub
		// Push the current fit; a resize may have landed before the
		// session existed.
		if m.ready {
			m.sync.Observe(m.id, m.viewport.Width, m.viewport.Height)
		}
		return m, nil

	case openFailedMsg:
		// A failed open reports into the grid before any prompt appears.
		m.exited = true
		m.grid.Write([]byte(fmt.Sprintf("failed to open session: %v\n", msg.err)))
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		cols, rows := m.Fit(msg.Width, msg.Height)
		if !m.ready {
			m.viewport = viewport.New(cols, rows)
			m.ready = true
		} else {
			m.viewport.Width = cols
			m.viewport.Height = rows
		}
		if m.id != "" {
			m.sync.Observe(m.id, cols, rows)
		}
		m.cmdInput.Width = msg.Width - 4
		m.refresh()
		return m, nil

	case events.SessionDataMsg:
		if msg.ID != m.id {
			return m, nil
		}
		m.grid.Write(msg.Data)
		m.refresh()
		return m, nil

	case events.SessionExitMsg:
		if msg.ID != m.id {
			return m, nil
		}
		m.exited = true
		// The grid is the user-visible error surface for exits.
		m.grid.Write([]byte(fmt.Sprintf("\n[process exited with code %d]\n", msg.ExitCode)))
		m.refresh()
		return m, nil

	case events.EditModeMsg:
		if msg.ID == m.id {
			m.editMode = msg.Active
		}
		return m, nil

	case events.OverlayMsg:
		if msg.ID == m.id {
			m.overlay = msg.Visible
		}
		return m, nil

	case events.GridClearMsg:
		if msg.ID == m.id {
			m.grid.Clear()
			m.refresh()
		}
		return m, nil

	case events.StatusLinesMsg:
		if msg.ID == m.id && len(msg.Lines) > 0 {
			m.grid.Write([]byte(strings.Join(msg.Lines, "\n") + "\n"))
			m.refresh()
		}
		return m, nil

	case events.EnvUpdateDoneMsg:
		if msg.ID == m.id && msg.Err != nil {
			m.grid.Write([]byte(fmt.Sprintf("environment update failed: %v\n", msg.Err)))
			m.refresh()
		}
		return m, nil

	case events.QuitMsg:
		m.teardown()
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.cmdMode {
		switch msg.Type {
		case tea.KeyEsc:
			m.cmdMode = false
			m.cmdInput.Reset()
			return m, nil
		case tea.KeyEnter:
			line := strings.TrimSpace(m.cmdInput.Value())
			m.cmdMode = false
			m.cmdInput.Reset()
			if line != "" {
				return m, m.runCommand(line)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.cmdInput, cmd = m.cmdInput.Update(msg)
		return m, cmd
	}

	// While an editor owns the session, higher-level shortcuts are
	// suspended; everything goes to the process.
	if !m.editMode {
		switch msg.Type {
		case tea.KeyCtrlQ:
			m.teardown()
			return m, tea.Quit
		case tea.KeyCtrlK:
			m.cmdMode = true
			m.cmdInput.Focus()
			return m, textinput.Blink
		case tea.KeyCtrlY:
			if err := clipboard.WriteAll(m.grid.Text()); err != nil {
				m.log.Debug("clipboard write failed", zap.Error(err))
			}
			return m, nil
		}
	}

	if m.exited {
		return m, nil
	}
	if b := keyToBytes(msg); len(b) > 0 {
		if err := m.registry.Write(m.id, string(b)); err != nil {
			m.log.Debug("key forward failed", zap.String("id", m.id), zap.Error(err))
		}
	}
	return m, nil
}

// runCommand executes a slash command off the event loop and feeds its
// output back through a status message.
func (m *Model) runCommand(line string) tea.Cmd {
	ctx, id := m.ctx, m.id
	reg := m.commands
	return func() tea.Msg {
		fields := strings.Fields(line)
		name, args := fields[0], fields[1:]

		cmd, ok := reg.Get(name)
		if !ok {
			return events.StatusLinesMsg{ID: id, Lines: []string{fmt.Sprintf("unknown command: %s", name)}}
		}

		var out strings.Builder
		if err := cmd.Execute(ctx, args, &out); err != nil {
			return events.StatusLinesMsg{ID: id, Lines: []string{fmt.Sprintf("%s: %v", name, err)}}
		}
		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		if len(lines) == 1 && lines[0] == "" {
			return events.StatusLinesMsg{ID: id, Lines: nil}
		}
		return events.StatusLinesMsg{ID: id, Lines: lines}
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.grid.Render(m.viewport.Width))
	m.viewport.GotoBottom()
}

// View renders header, grid, and footer; the opaque overlay replaces
// the grid while an environment update is in flight.
func (m *Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	body := m.viewport.View()
	if m.overlay {
		body = m.overlayView()
	}

	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), body, m.footerView())
}

func (m *Model) headerView() string {
	title := m.titleStyle.Render("kubecli terminal")
	badge := ""
	if m.editMode {
		badge = m.badgeStyle.Render("  [editor]")
	}
	return title + m.statusStyle.Render("  "+m.id) + badge
}

func (m *Model) footerView() string {
	if m.cmdMode {
		return m.cmdInput.View()
	}
	if m.exited {
		return m.errorStyle.Render("session ended - ctrl+q to quit")
	}
	return m.statusStyle.Render("ctrl+k command · ctrl+y copy · ctrl+q quit")
}

// overlayView paints an opaque block the size of the grid so no
// intermediate terminal state shows through during an env update.
func (m *Model) overlayView() string {
	line := strings.Repeat("░", maxInt(m.viewport.Width, 1))
	rows := make([]string, maxInt(m.viewport.Height, 1))
	for i := range rows {
		rows[i] = line
	}
	mid := len(rows) / 2
	label := " updating environment... "
	if m.viewport.Width > len(label) {
		pad := (m.viewport.Width - len(label)) / 2
		rows[mid] = strings.Repeat("░", pad) + label + strings.Repeat("░", m.viewport.Width-pad-len(label))
	}
	return strings.Join(rows, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
