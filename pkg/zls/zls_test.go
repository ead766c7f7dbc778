package zls

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zig-tools/zigup/pkg/install"
)

func testSystem(t *testing.T) install.System {
	t.Helper()
	return install.NewSystem(t.TempDir(), filepath.Join(t.TempDir(), "bin"))
}

func TestBuildMissingCompilerIsWarning(t *testing.T) {
	res := Build(context.Background(), t.TempDir(),
		filepath.Join(t.TempDir(), "no-such-zig"), testSystem(t))

	assert.False(t, res.Installed)
	assert.Empty(t, res.Path)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "zig binary not found")
}

func TestBuildCloneFailureIsWarning(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler script is a shell script")
	}

	// A real executable standing in for zig; the clone fails first.
	zigBin := filepath.Join(t.TempDir(), "zig")
	require.NoError(t, os.WriteFile(zigBin, []byte("#!/bin/sh\nexit 0\n"), 0755))

	oldURL := RepoURL
	RepoURL = "file://" + filepath.Join(t.TempDir(), "no-such-repo")
	defer func() { RepoURL = oldURL }()

	res := Build(context.Background(), t.TempDir(), zigBin, testSystem(t))

	assert.False(t, res.Installed)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "failed to clone")
}

func TestBuildNeverReturnsInstalledWithoutPath(t *testing.T) {
	res := Build(context.Background(), t.TempDir(),
		filepath.Join(t.TempDir(), "no-such-zig"), testSystem(t))

	// Invariant callers rely on for the final report.
	if res.Installed {
		assert.NotEmpty(t, res.Path)
	} else {
		assert.Empty(t, res.Path)
	}
}
