package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHandleValidatesMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		plugin Plugin
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing requirement",
			plugin: metadataOnly{meta: PluginMetadata{Name: "fake"}},
			check: func(t *testing.T, err error) {
				var missing *MissingDeclarationError
				require.ErrorAs(t, err, &missing)
				require.Equal(t, "Requires", missing.Field)
			},
		},
		{
			name:   "name mismatch",
			plugin: metadataOnly{meta: testMeta("other")},
			check: func(t *testing.T, err error) {
				require.Contains(t, err.Error(), "declares name 'other'")
			},
		},
		{
			name:   "invalid version",
			plugin: metadataOnly{meta: PluginMetadata{Name: "fake", Version: "1.0", Requires: ">=0.1.0"}},
			check: func(t *testing.T, err error) {
				require.Contains(t, err.Error(), "invalid Version")
			},
		},
		{
			name:   "nil plugin",
			plugin: nil,
			check: func(t *testing.T, err error) {
				require.Contains(t, err.Error(), "plugin is nil")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := NewHandle("fake", "/plugins", tt.plugin, testEnv(), nil)
			require.Nil(t, h)

			var loadErr *LoadingError
			require.ErrorAs(t, err, &loadErr)
			require.Equal(t, "fake", loadErr.PluginName())
			tt.check(t, err)
		})
	}
}

func TestCheckVersionRequirement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host    string
		wantErr bool
		failing []string
	}{
		{host: "0.1.0"},
		{host: "0.9.9+build.7"},
		{host: "0.1.0-rc.1", wantErr: true, failing: []string{">=0.1.0"}},
		{host: "1.0.0", wantErr: true, failing: []string{"<1.0.0"}},
		{host: "0.0.9", wantErr: true, failing: []string{">=0.1.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			env := testEnv()
			env.HostVersion = tt.host
			h, err := NewHandle("fake", "", metadataOnly{meta: testMeta("fake")}, env, nil)
			require.NoError(t, err)

			err = h.CheckVersionRequirement()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var loadErr *LoadingError
			require.ErrorAs(t, err, &loadErr)
			var unmet *UnmetRequirementError
			require.ErrorAs(t, err, &unmet)
			require.Equal(t, ">=0.1.0, <1.0.0", unmet.Requirement)

			failing := make([]string, len(unmet.Failed))
			for i, c := range unmet.Failed {
				failing[i] = c.String()
			}
			require.Equal(t, tt.failing, failing)
		})
	}
}

func TestCheckVersionRequirementBadInputs(t *testing.T) {
	t.Parallel()

	env := testEnv()
	env.HostVersion = "dev"
	h, err := NewHandle("fake", "", metadataOnly{meta: testMeta("fake")}, env, nil)
	require.NoError(t, err)
	require.ErrorContains(t, h.CheckVersionRequirement(), "host version")

	meta := testMeta("fake")
	meta.Requires = "~>1.0"
	h, err = NewHandle("fake", "", metadataOnly{meta: meta}, testEnv(), nil)
	require.NoError(t, err)
	var loadErr *LoadingError
	require.ErrorAs(t, h.CheckVersionRequirement(), &loadErr)
}

func TestCapabilityDiscovery(t *testing.T) {
	t.Parallel()

	p := &fakePlugin{
		meta: testMeta("fake"),
		encrypt: map[string]*Capability{
			"zeta":  prefixCapability(),
			"alpha": prefixCapability(),
			"off":   {Disabled: true},
		},
		services: map[string]*Capability{"counter": counterService(false)},
	}
	h := newFakeHandle(t, p)

	for i := 0; i < 3; i++ {
		names, err := h.EncryptTypes()
		require.NoError(t, err)
		require.Equal(t, []string{"alpha", "zeta"}, names)

		services, err := h.ServiceTypes()
		require.NoError(t, err)
		require.Equal(t, []string{"counter"}, services)
	}

	require.Equal(t, int32(1), p.encryptScans.Load())
	require.Equal(t, int32(1), p.serviceScans.Load())

	_, err := h.EncryptCapability("off")
	var notFound *CapabilityNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, KindEncrypt, notFound.Kind)
}

func TestCapabilityDiscoveryWithoutProviders(t *testing.T) {
	t.Parallel()

	h, err := NewHandle("fake", "", metadataOnly{meta: testMeta("fake")}, testEnv(), nil)
	require.NoError(t, err)

	names, err := h.EncryptTypes()
	require.NoError(t, err)
	require.Empty(t, names)

	names, err = h.ServiceTypes()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestMalformedCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		caps map[string]*Capability
		want string
	}{
		{name: "nil record", caps: map[string]*Capability{"x": nil}, want: "is nil"},
		{
			name: "nil callable",
			caps: map[string]*Capability{"x": {Phases: map[string]Phase{PhaseEncrypt: {}}}},
			want: "has no callable",
		},
		{
			name: "duplicate parameter",
			caps: map[string]*Capability{"x": {Phases: map[string]Phase{PhaseEncrypt: {
				Func:   func(context.Context, Args) (any, error) { return nil, nil },
				Params: []Parameter{{Name: "a"}, {Name: "a"}},
			}}}},
			want: `parameter "a" declared more than once`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newFakeHandle(t, &fakePlugin{meta: testMeta("fake"), encrypt: tt.caps})

			_, err := h.EncryptTypes()
			var loadErr *LoadingError
			require.ErrorAs(t, err, &loadErr)
			require.ErrorContains(t, err, tt.want)

			// The failure is cached with the index.
			_, again := h.ServiceTypes()
			require.Equal(t, err, again)
		})
	}
}

func TestExecuteEncryptRoundTrip(t *testing.T) {
	t.Parallel()

	h := newFakeHandle(t, &fakePlugin{
		meta:    testMeta("fake"),
		encrypt: map[string]*Capability{"prefix": prefixCapability()},
	})
	ctx := context.Background()

	sealed, err := h.ExecuteEncrypt(ctx, "prefix", []byte("wg0"), nil)
	require.NoError(t, err)
	require.Equal(t, []byte("FAKE:wg0"), sealed)

	opened, err := h.ExecuteDecrypt(ctx, "prefix", sealed, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("wg0"), opened)

	sealed, err = h.ExecuteEncrypt(ctx, "prefix", []byte("wg0"), map[string]any{"prefix": "X|"})
	require.NoError(t, err)
	require.Equal(t, []byte("X|wg0"), sealed)
}

func TestExecuteEncryptErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("cipher failure")
	caps := map[string]*Capability{
		"prefix": prefixCapability(),
		"broken": {Phases: map[string]Phase{
			PhaseEncrypt: {Func: func(context.Context, Args) (any, error) { return nil, cause }},
			PhaseDecrypt: {Func: func(context.Context, Args) (any, error) { return 42, nil }},
		}},
		"encrypt-only": {Phases: map[string]Phase{
			PhaseEncrypt: {Func: func(context.Context, Args) (any, error) { return []byte{}, nil }},
		}},
	}
	h := newFakeHandle(t, &fakePlugin{meta: testMeta("fake"), encrypt: caps})
	ctx := context.Background()

	_, err := h.ExecuteEncrypt(ctx, "prefix", nil, map[string]any{"payload": []byte("forged")})
	var access *ParameterAccessError
	require.ErrorAs(t, err, &access)

	_, err = h.ExecuteEncrypt(ctx, "prefix", nil, map[string]any{"level": 9})
	var unknown *UnknownParameterError
	require.ErrorAs(t, err, &unknown)

	_, err = h.ExecuteEncrypt(ctx, "missing", nil, nil)
	var notFound *CapabilityNotFoundError
	require.ErrorAs(t, err, &notFound)
	pluginErr, ok := AsPluginError(err)
	require.True(t, ok)
	require.Equal(t, "fake", pluginErr.PluginName())

	_, err = h.ExecuteEncrypt(ctx, "broken", nil, nil)
	var runtimeErr *RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	require.Equal(t, "fake", runtimeErr.Plugin)
	require.Equal(t, "broken.encrypt", runtimeErr.Target)
	require.ErrorIs(t, err, cause)

	_, err = h.ExecuteDecrypt(ctx, "broken", nil, nil)
	require.ErrorAs(t, err, &runtimeErr)
	require.ErrorContains(t, err, "returned int, want []byte")

	_, err = h.ExecuteDecrypt(ctx, "encrypt-only", nil, nil)
	var phaseErr *PhaseNotFoundError
	require.ErrorAs(t, err, &phaseErr)
	require.Equal(t, PhaseDecrypt, phaseErr.Phase)

	_, err = h.ExecuteDecrypt(ctx, "prefix", []byte("plain"), nil)
	require.ErrorAs(t, err, &runtimeErr)
	require.Equal(t, "prefix.decrypt", runtimeErr.Target)
}

func TestExecuteContextContents(t *testing.T) {
	t.Parallel()

	var seen Args
	capture := &Capability{Phases: map[string]Phase{PhaseEncrypt: {
		Params: []Parameter{
			{Name: "app", Default: FromContext("APP_DIR")},
			{Name: "file", Default: Template("{CONFIG_FILE}")},
			{Name: "section", Default: FromContext("fake")},
			{Name: "flat", Default: FromContext("fake.prefix")},
			{Name: "payload", Default: FromContext(ContextKeyPayload)},
		},
		Func: func(_ context.Context, args Args) (any, error) {
			seen = args
			return []byte("ok"), nil
		},
	}}}

	h := newFakeHandle(t, &fakePlugin{meta: testMeta("fake"), encrypt: map[string]*Capability{"capture": capture}})
	_, err := h.ExecuteEncrypt(context.Background(), "capture", []byte("data"), nil)
	require.NoError(t, err)

	require.Equal(t, "/opt/wgcm", seen["app"])
	require.Equal(t, "/home/u/.config/wg_config_manager/config.ini", seen["file"])
	require.Equal(t, map[string]string{"prefix": "FAKE:"}, seen["section"])
	require.Equal(t, "FAKE:", seen["flat"])
	require.Equal(t, []byte("data"), seen["payload"])
}
