// Package catalog holds the interfaces to the command-template catalog.
// The terminal core treats everything produced here as opaque shell
// text; it never interprets command semantics.
package catalog

import (
	"fmt"
	"strings"

	"github.com/vitqst/kubecli-sub000/pkg/utils"
)

// Renderer produces the literal shell text for higher-level operations.
// Kube context switching, resource listing and the rest of the command
// catalog live behind this boundary.
type Renderer interface {
	// Exports renders the shell commands that apply the given
	// environment values, one command per entry, in stable key order.
	Exports(env map[string]string) []string
}

// ContextLister is the kubeconfig/context discovery collaborator. The
// core never calls it directly; it exists so consumers can wire their
// own discovery without touching the terminal subsystem.
type ContextLister interface {
	Contexts() ([]string, error)
	CurrentContext() (string, error)
}

// ShellRenderer renders POSIX shell export commands.
type ShellRenderer struct{}

// Exports renders one `export KEY='value'` per entry, sorted by key so
// output and tests are deterministic.
func (ShellRenderer) Exports(env map[string]string) []string {
	cmds := make([]string, 0, len(env))
	for _, k := range utils.SortedKeys(env) {
		cmds = append(cmds, fmt.Sprintf("export %s=%s", k, singleQuote(env[k])))
	}
	return cmds
}

// singleQuote wraps v in single quotes, escaping embedded ones the
// POSIX way ('\'' splice).
func singleQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
