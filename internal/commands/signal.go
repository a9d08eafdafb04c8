package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/vitqst/kubecli-sub000/internal/terminal"
	"github.com/vitqst/kubecli-sub000/pkg/utils"
)

// SignalCmd delivers a named signal to the active session's process.
type SignalCmd struct {
	Sessions *terminal.Registry
	Target   func() string
}

func (c *SignalCmd) Name() string        { return "signal" }
func (c *SignalCmd) Description() string { return "Sends a signal (INT, TERM, HUP, ...) to the session." }

func (c *SignalCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: signal NAME")
	}
	sig := utils.MapSignal(args[0])
	if sig == nil {
		return errors.Errorf("unknown signal %q", args[0])
	}
	if err := c.Sessions.Signal(c.Target(), sig); err != nil {
		return err
	}
	fmt.Fprintf(output, "sent %s\n", sig)
	return nil
}
