package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalog(t *testing.T) {
	t.Parallel()

	factory := func() Plugin { return metadataOnly{meta: testMeta("catalog-a")} }

	require.NoError(t, RegisterBuiltin("catalog-a", factory))
	t.Cleanup(func() { unregisterBuiltin("catalog-a") })

	got, ok := LookupBuiltin("catalog-a")
	require.True(t, ok)
	require.Equal(t, "catalog-a", got().PluginMetadata().Name)
	require.Contains(t, Builtins(), "catalog-a")

	err := RegisterBuiltin("catalog-a", factory)
	var loadErr *LoadingError
	require.ErrorAs(t, err, &loadErr)

	require.Error(t, RegisterBuiltin("catalog-nil", nil))
	require.Panics(t, func() { MustRegisterBuiltin("catalog-a", factory) })

	_, ok = LookupBuiltin("catalog-missing")
	require.False(t, ok)
}

func TestPluginFromSymbol(t *testing.T) {
	t.Parallel()

	var p Plugin = metadataOnly{meta: testMeta("so")}
	ctor := func() Plugin { return p }
	var nilPlugin Plugin

	tests := []struct {
		name    string
		sym     any
		wantErr string
	}{
		{name: "value", sym: p},
		{name: "constructor", sym: ctor},
		{name: "variable", sym: &p},
		{name: "nil variable", sym: &nilPlugin, wantErr: "exported Plugin variable is nil"},
		{name: "nil constructor result", sym: func() Plugin { return nil }, wantErr: "constructor returned nil plugin"},
		{name: "wrong type", sym: 17, wantErr: "symbol Plugin has type int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := pluginFromSymbol(tt.sym)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "so", got.PluginMetadata().Name)
		})
	}
}
