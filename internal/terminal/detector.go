package terminal

import (
	"bytes"
	"sync"
)

// editModeState is the detector's position in its two-state machine.
type editModeState int

const (
	stateNormal editModeState = iota
	stateAltScreen
)

// markerClass classifies which kind of marker matched in a chunk.
type markerClass int

const (
	markerNone markerClass = iota
	markerExit
	markerEnter
)

// exitMarkers signal a return from an alternate-screen or full-screen
// mode. They are checked before enter markers so a redraw burst that
// contains both kinds cannot leave the detector stuck active.
var exitMarkers = [][]byte{
	[]byte("\x1b[?1049l"),
	[]byte("\x1b[?1047l"),
	[]byte("\x1b[?47l"),
}

// enterMarkers signal activation of an alternate-screen mode, plus
// banner text of common full-screen editors whose startup may reach the
// stream before their mode switch.
var enterMarkers = [][]byte{
	[]byte("\x1b[?1049h"),
	[]byte("\x1b[?1047h"),
	[]byte("\x1b[?47h"),
	[]byte("VIM - Vi IMproved"),
	[]byte("GNU nano"),
}

// transitions is the named transition table: current state and matched
// marker class to next state. Missing entries keep the current state.
var transitions = map[editModeState]map[markerClass]editModeState{
	stateNormal: {
		markerEnter: stateAltScreen,
		markerExit:  stateNormal,
	},
	stateAltScreen: {
		markerEnter: stateAltScreen,
		markerExit:  stateNormal,
	},
}

// maxMarkerLen is the longest marker; the detector carries up to one
// byte less than this between chunks so split markers still match.
var maxMarkerLen = func() int {
	max := 0
	for _, m := range append(append([][]byte{}, exitMarkers...), enterMarkers...) {
		if len(m) > max {
			max = len(m)
		}
	}
	return max
}()

// Detector is the per-session stateful scanner that decides whether a
// full-screen editor currently owns the terminal. Detection is a
// side-channel read: chunks are never delayed or mutated.
type Detector struct {
	mu       sync.Mutex
	state    editModeState
	tail     []byte
	onChange func(active bool)
}

// NewDetector creates a detector. onChange fires only when the boolean
// actually flips; it is invoked from the caller's goroutine.
func NewDetector(onChange func(active bool)) *Detector {
	return &Detector{onChange: onChange}
}

// Active reports whether an editor currently owns the session.
func (d *Detector) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == stateAltScreen
}

// Scan inspects one output chunk for marker sequences and advances the
// state machine. Exit markers win over enter markers within a chunk.
func (d *Detector) Scan(chunk []byte) {
	d.mu.Lock()

	buf := chunk
	if len(d.tail) > 0 {
		buf = append(append([]byte{}, d.tail...), chunk...)
	}

	class := classify(buf)
	next := d.state
	if to, ok := transitions[d.state][class]; ok {
		next = to
	}

	flipped := next != d.state
	d.state = next
	d.tail = pendingSuffix(buf)

	cb := d.onChange
	d.mu.Unlock()

	if flipped && cb != nil {
		cb(next == stateAltScreen)
	}
}

// Reset returns the detector to the normal state without emitting an
// event. Used when the session closes.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = stateNormal
	d.tail = nil
}

// classify reports which marker class appears in buf, exit first.
func classify(buf []byte) markerClass {
	for _, m := range exitMarkers {
		if bytes.Contains(buf, m) {
			return markerExit
		}
	}
	for _, m := range enterMarkers {
		if bytes.Contains(buf, m) {
			return markerEnter
		}
	}
	return markerNone
}

// pendingSuffix returns the longest suffix of buf that is a proper
// prefix of some marker. Carrying only marker prefixes guarantees a
// fully matched marker is never re-scanned with the next chunk.
func pendingSuffix(buf []byte) []byte {
	limit := maxMarkerLen - 1
	if len(buf) < limit {
		limit = len(buf)
	}
	for n := limit; n > 0; n-- {
		s := buf[len(buf)-n:]
		if isMarkerPrefix(s) {
			out := make([]byte, n)
			copy(out, s)
			return out
		}
	}
	return nil
}

func isMarkerPrefix(s []byte) bool {
	for _, m := range exitMarkers {
		if len(s) < len(m) && bytes.HasPrefix(m, s) {
			return true
		}
	}
	for _, m := range enterMarkers {
		if len(s) < len(m) && bytes.HasPrefix(m, s) {
			return true
		}
	}
	return false
}
