package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAbsPathKeepsAbsolute(t *testing.T) {
	abs := t.TempDir()
	got, err := ResolveAbsPath(abs, "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, abs, got)
}

func TestResolveAbsPathJoinsBaseDir(t *testing.T) {
	got, err := ResolveAbsPath("recordings", "/data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "recordings"), got)
}

func TestResolveAbsPathDefaultsToWorkingDir(t *testing.T) {
	got, err := ResolveAbsPath("recordings", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "recordings", filepath.Base(got))
}
