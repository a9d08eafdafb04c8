package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/vitqst/kubecli-sub000/internal/envsync"
)

// EnvCmd applies environment variable changes to the active session
// through the update coordinator (overlay, clear, batched export).
type EnvCmd struct {
	Env *envsync.Coordinator
	// Target returns the session id the update applies to.
	Target func() string
	// Notify reports the outcome back to the display surface once the
	// full update sequence has run.
	Notify func(id string, err error)
}

func (c *EnvCmd) Name() string        { return "env" }
func (c *EnvCmd) Description() string { return "Applies KEY=VALUE changes to the session environment." }

func (c *EnvCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: env KEY=VALUE [KEY=VALUE ...]")
	}

	changes := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return errors.Errorf("invalid assignment %q, expected KEY=VALUE", arg)
		}
		changes[key] = value
	}

	id := c.Target()
	err := c.Env.Apply(ctx, id, changes)
	if c.Notify != nil {
		c.Notify(id, err)
		if err != nil {
			// The notification path reports the failure on the surface.
			return nil
		}
	} else if err != nil {
		return err
	}

	fmt.Fprintf(output, "updated %d variable(s)\n", len(changes))
	return nil
}
