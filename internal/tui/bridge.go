package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vitqst/kubecli-sub000/pkg/events"
)

// Sender is the slice of tea.Program the bridge needs.
type Sender interface {
	Send(tea.Msg)
}

// Bridge adapts the event loop to the env-update coordinator's surface
// contract: each call becomes a message so all rendering decisions stay
// on the Update goroutine.
type Bridge struct {
	send Sender
}

func NewBridge(send Sender) *Bridge {
	return &Bridge{send: send}
}

func (b *Bridge) ShowOverlay(id string) {
	b.send.Send(events.OverlayMsg{ID: id, Visible: true})
}

func (b *Bridge) HideOverlay(id string) {
	b.send.Send(events.OverlayMsg{ID: id, Visible: false})
}

func (b *Bridge) ClearGrid(id string) {
	b.send.Send(events.GridClearMsg{ID: id})
}

func (b *Bridge) WriteStatus(id string, lines []string) {
	b.send.Send(events.StatusLinesMsg{ID: id, Lines: lines})
}
