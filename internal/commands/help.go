package commands

import (
	"context"
	"fmt"
	"io"
)

// HelpCmd lists the available slash commands.
type HelpCmd struct {
	Registry *Registry
}

func (c *HelpCmd) Name() string        { return "help" }
func (c *HelpCmd) Description() string { return "Shows available commands and descriptions." }

func (c *HelpCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	fmt.Fprintln(output, "Available commands:")
	for _, cmd := range c.Registry.GetAll() {
		fmt.Fprintf(output, "  /%-10s %s\n", cmd.Name(), cmd.Description())
	}
	return nil
}
