package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"
)

// CopyCmd copies the session scrollback to the system clipboard.
type CopyCmd struct {
	// Text returns the plain-text scrollback of the active session.
	Text func() string
}

func (c *CopyCmd) Name() string        { return "copy" }
func (c *CopyCmd) Description() string { return "Copies the session scrollback to the clipboard." }

func (c *CopyCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	if err := clipboard.WriteAll(c.Text()); err != nil {
		return errors.Wrap(err, "copying to clipboard")
	}
	fmt.Fprintln(output, "scrollback copied")
	return nil
}
