package validation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/wgcm/internal/config"
)

const checkedINI = `[Extension]
plugin_path_gpg = {APP_DIR}/plugins
plugin_path_v2ray = {APP_DIR}/plugins

[WireGuard]
path = sh

[gpg]
path = sh
passphrase_file = {CONFIG_DIR}/passphrase
timeout = 30

[v2ray]
path = v2ray-binary-that-does-not-exist
config = {CONFIG_DIR}/v2ray.json

[laptop]
address = 10.0.0.2/32

[broken]
address = 10.0.0.300
`

func loadChecked(t *testing.T) (*config.Config, string) {
	t.Helper()

	dir := t.TempDir()
	cfg, err := config.Parse([]byte(checkedINI))
	require.NoError(t, err)
	cfg.SetPaths(map[string]string{"APP_DIR": dir, "CONFIG_DIR": dir})
	return cfg, dir
}

func TestPlan(t *testing.T) {
	t.Parallel()

	cfg, dir := loadChecked(t)

	checks, err := Plan(cfg)
	require.NoError(t, err)
	require.Equal(t, []Check{
		{Kind: KindDevice, Subject: "laptop", Target: "laptop"},
		{Kind: KindDevice, Subject: "broken", Target: "broken"},
		{Kind: KindCommand, Subject: "WireGuard.path", Target: "sh"},
		{Kind: KindContains, Subject: "gpg.passphrase_file", Target: filepath.Join(dir, "passphrase"), Pattern: `\S`},
		{Kind: KindCommand, Subject: "gpg.path", Target: "sh"},
		{Kind: KindFile, Subject: "v2ray.config", Target: filepath.Join(dir, "v2ray.json")},
		{Kind: KindCommand, Subject: "v2ray.path", Target: "v2ray-binary-that-does-not-exist"},
	}, checks)
}

func TestRun(t *testing.T) {
	t.Parallel()

	cfg, dir := loadChecked(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passphrase"), []byte("pw\n"), 0o600))

	checks, err := Plan(cfg)
	require.NoError(t, err)

	results, err := Run(context.Background(), cfg, checks)
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken: ")
	require.Contains(t, err.Error(), "v2ray.config: ")
	require.Contains(t, err.Error(), "v2ray.path: ")
	require.Len(t, results, len(checks))

	passed := map[string]bool{}
	for _, r := range results {
		passed[r.Check.Subject] = r.Passed
	}
	require.Equal(t, map[string]bool{
		"laptop":              true,
		"broken":              false,
		"WireGuard.path":      true,
		"gpg.passphrase_file": true,
		"gpg.path":            true,
		"v2ray.config":        false,
		"v2ray.path":          false,
	}, passed)
}

func TestRunUnknownKindAndCancellation(t *testing.T) {
	t.Parallel()

	cfg, _ := loadChecked(t)

	results, err := Run(context.Background(), cfg, []Check{{Kind: "ping", Subject: "x"}})
	require.ErrorContains(t, err, `unknown check kind "ping"`)
	require.False(t, results[0].Passed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err = Run(ctx, cfg, []Check{{Kind: KindCommand, Subject: "sh", Target: "sh"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, results)
}
