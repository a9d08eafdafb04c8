package utils

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSignal(t *testing.T) {
	assert.Equal(t, os.Interrupt, MapSignal("INT"))
	assert.Equal(t, os.Interrupt, MapSignal("sigint"))
	assert.Equal(t, syscall.SIGTERM, MapSignal("TERM"))
	assert.Equal(t, syscall.SIGHUP, MapSignal("SIGHUP"))
	assert.Equal(t, syscall.SIGQUIT, MapSignal("quit"))
	assert.Equal(t, os.Kill, MapSignal("KILL"))
	assert.Nil(t, MapSignal("SEGV"))
	assert.Nil(t, MapSignal(""))
}

func TestMergeEnvOverridesWin(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/home/dev", "TERM=dumb"}
	got := MergeEnv(base, map[string]string{
		"TERM":      "xterm-256color",
		"NAMESPACE": "prod",
	})

	assert.Equal(t, []string{
		"PATH=/usr/bin",
		"HOME=/home/dev",
		"NAMESPACE=prod",
		"TERM=xterm-256color",
	}, got)
}

func TestMergeEnvNoOverrides(t *testing.T) {
	base := []string{"A=1"}
	assert.Equal(t, base, MergeEnv(base, nil))
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]string{"z": "", "a": "", "m": ""})
	assert.Equal(t, []string{"a", "m", "z"}, got)
}
