package commands

import (
	"context"
	"io"
)

// QuitCmd asks the display surface to shut down. The actual teardown
// (unsubscribe, session close) runs on the event loop so it shares the
// keybinding path.
type QuitCmd struct {
	RequestQuit func()
}

func (c *QuitCmd) Name() string        { return "quit" }
func (c *QuitCmd) Description() string { return "Closes the session and exits." }

func (c *QuitCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	c.RequestQuit()
	return nil
}
