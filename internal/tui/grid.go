package tui

import (
	"strings"
	"sync"
)

// Grid is the character-grid rendering engine consumed by the display
// surface. It is an external collaborator boundary: the surface renders
// whatever the grid produces and never touches session bytes directly.
type Grid interface {
	Write(data []byte)
	Clear()
	Text() string          // plain text of the scrollback, for copy
	Render(width int) string // rendered content for the viewport
	Lines() int
}

const maxScrollback = 5000

// maxEscCarry bounds the unterminated escape prefix carried between
// writes; anything longer is garbage, not a split sequence.
const maxEscCarry = 4096

// lineGrid is a line-oriented default Grid. It keeps SGR styling so
// colors survive, drops cursor-movement sequences a line buffer cannot
// honor, and folds carriage returns into line overwrites the way
// progress bars expect.
type lineGrid struct {
	mu    sync.Mutex
	lines []string
	cur   strings.Builder
	esc   []byte // unterminated escape sequence carried to the next write
}

func newLineGrid() *lineGrid {
	return &lineGrid{}
}

func (g *lineGrid) Write(data []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.sanitize(data)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			g.lines = append(g.lines, g.cur.String())
			g.cur.Reset()
			if len(g.lines) > maxScrollback {
				g.lines = g.lines[len(g.lines)-maxScrollback:]
			}
		case '\r':
			// Overwrite the current line on the next bytes.
			g.cur.Reset()
		default:
			g.cur.WriteByte(s[i])
		}
	}
}

func (g *lineGrid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lines = nil
	g.cur.Reset()
	g.esc = nil
}

func (g *lineGrid) Text() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	all := append(append([]string{}, g.lines...), g.cur.String())
	return strings.Join(all, "\n")
}

func (g *lineGrid) Render(width int) string {
	return g.Text()
}

func (g *lineGrid) Lines() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.lines) + 1
}

// sanitize keeps printable bytes and SGR color sequences, and drops
// escape sequences the line buffer cannot represent (cursor movement,
// screen switching, OSC titles). A sequence left unterminated at the
// end of a write is carried to the next one, like the detector's
// marker tail, so a color code split across reads is not mangled into
// literal text. Callers hold g.mu.
func (g *lineGrid) sanitize(data []byte) string {
	if len(g.esc) > 0 {
		data = append(append([]byte{}, g.esc...), data...)
		g.esc = nil
	}

	var out strings.Builder
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != 0x1b {
			if b == '\n' || b == '\r' || b == '\t' || b >= 0x20 {
				out.WriteByte(b)
			}
			continue
		}

		// Escape sequence: find its end, or carry it if the write ends
		// before the terminator arrives.
		if i+1 >= len(data) {
			g.carry(data[i:])
			break
		}
		switch data[i+1] {
		case '[': // CSI
			j := i + 2
			for j < len(data) && !isCSIFinal(data[j]) {
				j++
			}
			if j >= len(data) {
				g.carry(data[i:])
				return out.String()
			}
			if data[j] == 'm' {
				out.Write(data[i : j+1]) // keep SGR styling
			}
			i = j
		case ']': // OSC, terminated by BEL or ST
			j := i + 2
			for j < len(data) && data[j] != 0x07 && !(data[j] == 0x1b && j+1 < len(data) && data[j+1] == '\\') {
				j++
			}
			if j >= len(data) {
				g.carry(data[i:])
				return out.String()
			}
			if data[j] == 0x1b {
				j++
			}
			i = j
		default:
			i++ // two-byte sequence (ESC c, ESC 7, ...)
		}
	}
	return out.String()
}

// carry stashes an unterminated escape prefix for the next write,
// unless it has grown past any plausible sequence length.
func (g *lineGrid) carry(prefix []byte) {
	if len(prefix) > maxEscCarry {
		g.esc = nil
		return
	}
	g.esc = append([]byte{}, prefix...)
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}
