package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	originalVersion := version
	originalCommit := commit
	originalDate := date
	t.Cleanup(func() {
		version = originalVersion
		commit = originalCommit
		date = originalDate
	})

	version = "v1.2.3"
	commit = "abcdef1"
	date = "2025-10-03"

	res, err := executeCommand(nil, "", "version")
	require.NoError(t, err)

	require.Contains(t, res.stdout, "v1.2.3")
	require.Contains(t, res.stdout, "plugin api: 1.2.3")
	require.Contains(t, res.stdout, "abcdef1")
	require.Contains(t, res.stdout, "2025-10-03")
}

func TestHostVersionFallsBackForDevBuilds(t *testing.T) {
	originalVersion := version
	t.Cleanup(func() { version = originalVersion })

	version = "dev"
	require.Equal(t, pluginAPIVersion, hostVersion())

	version = "0.4.0-rc.1"
	require.Equal(t, "0.4.0-rc.1", hostVersion())
}
