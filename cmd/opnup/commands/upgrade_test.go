package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgrade(t *testing.T) {
	cmd := Upgrade()

	require.NotNil(t, cmd)
	assert.Equal(t, "upgrade", cmd.Use)
	assert.Contains(t, cmd.Long, "dry run")
}

func TestUpgrade_TargetFlag(t *testing.T) {
	cmd := Upgrade()

	flag := cmd.Flags().Lookup("target")
	require.NotNil(t, flag, "target flag should exist")
	assert.Equal(t, "t", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
	// --target without a value auto-detects the next major.
	assert.Equal(t, "auto", flag.NoOptDefVal)
}

func TestUpgrade_ExecuteFlag(t *testing.T) {
	cmd := Upgrade()

	flag := cmd.Flags().Lookup("execute")
	require.NotNil(t, flag, "execute flag should exist")
	assert.Equal(t, "x", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
}

func TestUpgrade_ModeFlags(t *testing.T) {
	cmd := Upgrade()

	for name, short := range map[string]string{
		"minor":       "m",
		"force":       "f",
		"resume":      "r",
		"with-backup": "b",
	} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "%s flag should exist", name)
		assert.Equal(t, short, flag.Shorthand)
		assert.Equal(t, "false", flag.DefValue)
	}
}
