package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	cmd := Version()

	require.NotNil(t, cmd)
	assert.Equal(t, "version", cmd.Use)
	assert.NotNil(t, cmd.Run)
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")
	assert.Equal(t, "1.2.3", version)
	assert.Equal(t, "abc123", commit)
	assert.Equal(t, "2026-01-01", date)
}
