package plugin

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const testHostVersion = "0.3.0"

type fakePlugin struct {
	meta     PluginMetadata
	encrypt  map[string]*Capability
	services map[string]*Capability

	encryptScans atomic.Int32
	serviceScans atomic.Int32
}

func (p *fakePlugin) PluginMetadata() PluginMetadata { return p.meta }

func (p *fakePlugin) EncryptTypes() map[string]*Capability {
	p.encryptScans.Add(1)
	return p.encrypt
}

func (p *fakePlugin) ServiceTypes() map[string]*Capability {
	p.serviceScans.Add(1)
	return p.services
}

// metadataOnly implements neither provider interface.
type metadataOnly struct {
	meta PluginMetadata
}

func (p metadataOnly) PluginMetadata() PluginMetadata { return p.meta }

type sections map[string]map[string]string

func (s sections) Section(name string) map[string]string { return s[name] }

func testMeta(name string) PluginMetadata {
	return PluginMetadata{Name: name, Version: "1.2.0", Requires: ">=0.1.0, <1.0.0"}
}

func testEnv() Environment {
	return Environment{
		HostVersion: testHostVersion,
		Paths: map[string]string{
			"APP_DIR":     "/opt/wgcm",
			"CONFIG_DIR":  "/home/u/.config/wg_config_manager",
			"CONFIG_FILE": "/home/u/.config/wg_config_manager/config.ini",
		},
		Sections: sections{
			"fake": {"prefix": "FAKE:"},
		},
	}
}

// prefixCapability "encrypts" by prepending a prefix taken from the plugin's
// config section.
func prefixCapability() *Capability {
	params := []Parameter{
		{Name: "payload", Default: FromContext(ContextKeyPayload)},
		{Name: "prefix", Default: Template("{fake.prefix}"), Helper: "marker prepended to the payload"},
	}

	return &Capability{
		Description: "prefix marker",
		Phases: map[string]Phase{
			PhaseEncrypt: {
				Params: params,
				Func: func(_ context.Context, args Args) (any, error) {
					return append([]byte(args.String("prefix")), args.Bytes("payload")...), nil
				},
			},
			PhaseDecrypt: {
				Params: params,
				Func: func(_ context.Context, args Args) (any, error) {
					prefix := []byte(args.String("prefix"))
					payload := args.Bytes("payload")
					if !bytes.HasPrefix(payload, prefix) {
						return nil, errors.New("payload is not prefixed")
					}
					return payload[len(prefix):], nil
				},
			},
		},
	}
}

type counter struct {
	ticks     atomic.Int32
	teardowns atomic.Int32
}

// counterService builds a *counter; "tick" increments it and "teardown"
// records the shutdown. failTeardown makes teardown return an error.
func counterService(failTeardown bool) *Capability {
	service := []Parameter{{Name: "svc", Default: FromContext(ContextKeyService)}}

	return &Capability{
		Phases: map[string]Phase{
			PhaseNew: {
				Params: []Parameter{{Name: "start", Default: Literal(int32(0))}},
				Func: func(_ context.Context, args Args) (any, error) {
					c := &counter{}
					start, _ := args["start"].(int32)
					c.ticks.Store(start)
					return c, nil
				},
			},
			"tick": {
				Params: service,
				Func: func(_ context.Context, args Args) (any, error) {
					return args["svc"].(*counter).ticks.Add(1), nil
				},
			},
			PhaseTeardown: {
				Params: service,
				Func: func(_ context.Context, args Args) (any, error) {
					args["svc"].(*counter).teardowns.Add(1)
					if failTeardown {
						return nil, errors.New("teardown exploded")
					}
					return nil, nil
				},
			},
		},
	}
}

func newFakeHandle(t testing.TB, p *fakePlugin) *Handle {
	t.Helper()

	h, err := NewHandle(p.meta.Name, "/plugins", p, testEnv(), nil)
	require.NoError(t, err)
	return h
}
