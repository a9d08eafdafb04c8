package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/vitqst/kubecli-sub000/internal/terminal"
)

// SessionsCmd lists the sessions the registry currently tracks.
type SessionsCmd struct {
	Sessions *terminal.Registry
}

func (c *SessionsCmd) Name() string        { return "sessions" }
func (c *SessionsCmd) Description() string { return "Lists active terminal sessions." }

func (c *SessionsCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	infos := c.Sessions.Sessions()
	if len(infos) == 0 {
		fmt.Fprintln(output, "no active sessions")
		return nil
	}
	for _, info := range infos {
		state := "running"
		if info.Exited {
			state = "exited"
		}
		if info.EditMode {
			state += ", editor"
		}
		fmt.Fprintf(output, "%s  %dx%d  %s  (%s)\n", info.ID, info.Cols, info.Rows, info.Cwd, state)
	}
	return nil
}
