package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectorEntersOnAltScreenSwitch(t *testing.T) {
	var flips []bool
	d := NewDetector(func(active bool) { flips = append(flips, active) })

	d.Scan([]byte("\x1b[?1049h\x1b[2J"))

	assert.True(t, d.Active())
	assert.Equal(t, []bool{true}, flips)
}

func TestDetectorExitsOnRestore(t *testing.T) {
	var flips []bool
	d := NewDetector(func(active bool) { flips = append(flips, active) })

	d.Scan([]byte("\x1b[?1049h"))
	d.Scan([]byte("\x1b[?1049l"))

	assert.False(t, d.Active())
	assert.Equal(t, []bool{true, false}, flips)
}

func TestDetectorSuppressesDuplicateTransitions(t *testing.T) {
	var flips []bool
	d := NewDetector(func(active bool) { flips = append(flips, active) })

	d.Scan([]byte("\x1b[?1049h"))
	d.Scan([]byte("\x1b[?47h")) // already active, no second event
	d.Scan([]byte("\x1b[?1049l"))
	d.Scan([]byte("\x1b[?1047l")) // already inactive

	assert.Equal(t, []bool{true, false}, flips)
}

func TestDetectorExitWinsWithinChunk(t *testing.T) {
	d := NewDetector(nil)
	d.Scan([]byte("\x1b[?1049h"))
	assert.True(t, d.Active())

	// A redraw burst carrying both marker kinds must not leave the
	// detector stuck in the editor state.
	d.Scan([]byte("\x1b[?1049h...\x1b[?1049l"))
	assert.False(t, d.Active())
}

func TestDetectorMatchesMarkerSplitAcrossChunks(t *testing.T) {
	var flips []bool
	d := NewDetector(func(active bool) { flips = append(flips, active) })

	d.Scan([]byte("\x1b[?10"))
	assert.False(t, d.Active())
	d.Scan([]byte("49h"))

	assert.True(t, d.Active())
	assert.Equal(t, []bool{true}, flips)
}

func TestDetectorMatchesEditorBanner(t *testing.T) {
	d := NewDetector(nil)
	d.Scan([]byte("  GNU nano 7.2       New Buffer"))
	assert.True(t, d.Active())
}

func TestDetectorCompletedMarkerNotRescanned(t *testing.T) {
	var flips []bool
	d := NewDetector(func(active bool) { flips = append(flips, active) })

	// The enter marker completes exactly at a chunk boundary; the carry
	// must not allow it to match again and mask the exit.
	d.Scan([]byte("\x1b[?1049h"))
	d.Scan([]byte("\x1b[?1049l"))
	d.Scan([]byte("plain output"))

	assert.False(t, d.Active())
	assert.Equal(t, []bool{true, false}, flips)
}

func TestDetectorResetClearsStateSilently(t *testing.T) {
	var flips []bool
	d := NewDetector(func(active bool) { flips = append(flips, active) })

	d.Scan([]byte("\x1b[?1049h"))
	d.Reset()

	assert.False(t, d.Active())
	assert.Equal(t, []bool{true}, flips)
}
