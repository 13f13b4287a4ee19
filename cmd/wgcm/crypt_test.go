package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/wgcm/internal/plugins/secretbox"
	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

const secretboxINI = `[Extension]
plugin_path_secretbox = {APP_DIR}/plugins

[secretbox]
passphrase = pw
`

func TestEncryptDecryptRoundTrip(t *testing.T) {
	path := writeConfig(t, secretboxINI)
	sealed := filepath.Join(t.TempDir(), "sealed.bin")

	_, err := executeCommand(nil, "private key = abc\n", "encrypt", "--plugin", secretbox.Name, "--out", sealed, "--config", path)
	require.NoError(t, err)
	require.NotContains(t, readFile(t, sealed), "private key")

	res, err := executeCommand(nil, "", "decrypt", "-P", secretbox.Name, "--in", sealed, "--config", path)
	require.NoError(t, err)
	require.Equal(t, "private key = abc\n", res.stdout)
}

func TestDecryptWithWrongPassphrase(t *testing.T) {
	path := writeConfig(t, secretboxINI)
	sealed := filepath.Join(t.TempDir(), "sealed.bin")

	_, err := executeCommand(nil, "secret", "encrypt", "-P", secretbox.Name, "-o", sealed, "--config", path)
	require.NoError(t, err)

	_, err = executeCommand(nil, "", "decrypt", "-P", secretbox.Name, "-i", sealed, "--set", "passphrase=other", "--config", path)
	require.Error(t, err)

	var encErr *wgcmerrors.EncryptionError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "decrypt", encErr.Op)
}

func TestEncryptUnknownPluginOrType(t *testing.T) {
	path := writeConfig(t, secretboxINI)

	_, err := executeCommand(nil, "x", "encrypt", "-P", "gpg", "--config", path)
	require.ErrorContains(t, err, "plugin 'gpg' not found")

	_, err = executeCommand(nil, "x", "encrypt", "-P", secretbox.Name, "--type", "ROT13", "--config", path)
	require.ErrorContains(t, err, "ROT13")

	_, err = executeCommand(nil, "x", "encrypt", "--config", path)
	require.ErrorContains(t, err, `required flag(s) "plugin" not set`)
}

func TestParseOverrides(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr string
	}{
		{name: "empty", pairs: nil, want: nil},
		{
			name:  "values keep equals signs",
			pairs: []string{"passphrase=a=b", "timeout = 5"},
			want:  map[string]any{"passphrase": "a=b", "timeout": " 5"},
		},
		{name: "empty value", pairs: []string{"passphrase="}, want: map[string]any{"passphrase": ""}},
		{name: "missing equals", pairs: []string{"passphrase"}, wantErr: "not key=value"},
		{name: "missing key", pairs: []string{"=x"}, wantErr: "not key=value"},
		{name: "duplicate", pairs: []string{"a=1", "a=2"}, wantErr: "more than once"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseOverrides(tc.pairs)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
