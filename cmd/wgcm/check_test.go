package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCheckCommandPasses(t *testing.T) {
	dir := t.TempDir()
	passphrase := filepath.Join(dir, "passphrase")
	require.NoError(t, os.WriteFile(passphrase, []byte("pw\n"), 0o600))

	path := writeConfig(t, `[Extension]
plugin_path_gpg = {APP_DIR}/plugins

[gpg]
path = sh
passphrase_file = `+passphrase+`

[laptop]
address = 10.0.0.2/32
`)

	res, err := executeCommand(nil, "", "check", "--config", path)
	require.NoError(t, err)
	require.Contains(t, res.stdout, "STATUS")
	require.Regexp(t, `ok\s+laptop\s+device`, res.stdout)
	require.Regexp(t, `ok\s+gpg.path\s+command_exists`, res.stdout)
	require.NotContains(t, res.stdout, "FAIL")
}

func TestCheckCommandReportsFailures(t *testing.T) {
	path := writeConfig(t, `[Extension]
plugin_path_v2ray = {APP_DIR}/plugins

[v2ray]
path = v2ray-binary-that-does-not-exist

[laptop]
persistent keep alive = often
`)

	res, err := executeCommand(nil, "", "check", "--output", "yaml", "--config", path)
	require.ErrorContains(t, err, "checks failed")

	var rows []checkRow
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &rows))
	require.Len(t, rows, 2)
	require.Equal(t, "laptop", rows[0].Subject)
	require.False(t, rows[0].Passed)
	require.Equal(t, "v2ray.path", rows[1].Subject)
	require.False(t, rows[1].Passed)
}
