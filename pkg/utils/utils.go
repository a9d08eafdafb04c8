package utils

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"
)

// Package utils contains general utility functions.

// MapSignal converts a signal name string (case-insensitive) to an
// os.Signal. Returns nil if the signal name is not recognized.
func MapSignal(signalName string) os.Signal {
	switch strings.TrimPrefix(strings.ToUpper(signalName), "SIG") {
	case "INT":
		return os.Interrupt
	case "TERM":
		return syscall.SIGTERM
	case "HUP":
		return syscall.SIGHUP
	case "QUIT":
		return syscall.SIGQUIT
	case "KILL":
		return os.Kill
	default:
		return nil
	}
}

// MergeEnv flattens a base environment (KEY=VALUE form) with an
// override map into the slice form expected by process spawning.
// Overrides win over base entries with the same key.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	merged := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if _, ok := overrides[key]; ok {
			continue
		}
		merged = append(merged, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged = append(merged, fmt.Sprintf("%s=%s", k, overrides[k]))
	}
	return merged
}

// SortedKeys returns the keys of a string map in stable order. Event
// and status output derived from maps must not depend on map iteration
// order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
