// Package envsync applies environment changes to a running session
// without visible intermediate terminal state.
package envsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitqst/kubecli-sub000/internal/catalog"
	"github.com/vitqst/kubecli-sub000/internal/logging"
	"github.com/vitqst/kubecli-sub000/pkg/utils"
)

// SessionWriter is the slice of the session registry the coordinator
// needs: a single ordered write path into the shell.
type SessionWriter interface {
	Write(id string, text string) error
}

// Surface is the display-side control the coordinator drives. The
// overlay must be fully opaque so nothing between overlay-on and the
// post-update redraw is visible.
type Surface interface {
	ShowOverlay(id string)
	HideOverlay(id string)
	ClearGrid(id string)
	WriteStatus(id string, lines []string)
}

// Coordinator sequences overlay-on, batched status writes, one combined
// export write, and overlay-off. The protocol is timing-based: prompt
// redraw completion cannot be observed without deeper escape parsing,
// so two fixed delays stand in for acknowledgements.
type Coordinator struct {
	writer   SessionWriter
	surface  Surface
	renderer catalog.Renderer
	log      *logging.Logger

	// SettleDelay covers overlay fade-in before the buffer is cleared;
	// ApplyDelay covers the shell applying exports and redrawing its
	// prompt. Both are configurable for tests.
	SettleDelay time.Duration
	ApplyDelay  time.Duration

	// sleep is injectable so tests can record delays instead of waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a coordinator with the given delays.
func New(writer SessionWriter, surface Surface, renderer catalog.Renderer, log *logging.Logger, settle, apply time.Duration) *Coordinator {
	return &Coordinator{
		writer:      writer,
		surface:     surface,
		renderer:    renderer,
		log:         log,
		SettleDelay: settle,
		ApplyDelay:  apply,
		sleep:       ctxSleep,
	}
}

// Apply updates the changed environment values on the session. Strict
// order: overlay on, settle delay, grid clear, one status batch, one
// combined newline-joined export write, apply delay, overlay off. The
// overlay always comes off, even on error.
func (c *Coordinator) Apply(ctx context.Context, id string, changes map[string]string) (err error) {
	if len(changes) == 0 {
		return nil
	}

	c.surface.ShowOverlay(id)
	defer c.surface.HideOverlay(id)

	if err = c.sleep(ctx, c.SettleDelay); err != nil {
		return err
	}

	c.surface.ClearGrid(id)

	lines := make([]string, 0, len(changes))
	for _, k := range utils.SortedKeys(changes) {
		lines = append(lines, fmt.Sprintf("Updating %s=%s", k, changes[k]))
	}
	c.surface.WriteStatus(id, lines)

	// All exports go out in a single write call: one transport call, no
	// interleaved partial prompts.
	payload := strings.Join(c.renderer.Exports(changes), "\n") + "\n"
	if err = c.writer.Write(id, payload); err != nil {
		return err
	}

	c.log.Debug("environment update written",
		zap.String("id", id), zap.Int("vars", len(changes)))

	return c.sleep(ctx, c.ApplyDelay)
}

// ctxSleep is a cooperative wait: it returns early when ctx is
// cancelled so teardown never blocks on an overlay timer.
func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
