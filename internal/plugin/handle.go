package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/wgcm/internal/logger"
	"github.com/alexisbeaulieu97/wgcm/internal/semver"
)

// Capability kinds used in errors and logs.
const (
	KindEncrypt = "encrypt"
	KindService = "service"
)

// SectionSource supplies plugin-scoped configuration sections.
type SectionSource interface {
	// Section returns the keys of the named section, or nil when absent.
	Section(name string) map[string]string
}

// Environment is what the host exposes to every plugin it loads.
type Environment struct {
	HostVersion string
	// Paths holds named path placeholders such as APP_DIR.
	Paths    map[string]string
	Sections SectionSource
}

// Handle wraps one loaded plugin. Capability indices are computed on first
// use and cached for the handle's lifetime.
type Handle struct {
	name   string
	path   string
	source string
	plugin Plugin
	meta   PluginMetadata
	env    Environment
	log    *logger.Logger

	indexOnce sync.Once
	encrypt   map[string]*Capability
	services  map[string]*Capability
	indexErr  error

	mu       sync.Mutex
	running  map[string]*serviceEntry
	starting map[string]struct{}
}

// NewHandle wraps p after checking its required declarations. Most callers
// obtain handles from a Loader instead.
func NewHandle(name, path string, p Plugin, env Environment, log *logger.Logger) (*Handle, error) {
	return newHandle(name, path, "direct", p, env, log)
}

func newHandle(name, path, source string, p Plugin, env Environment, log *logger.Logger) (*Handle, error) {
	if p == nil {
		return nil, NewLoadingError(name, errors.New("plugin is nil"))
	}

	meta := p.PluginMetadata()
	if err := meta.Validate(); err != nil {
		return nil, NewLoadingError(name, err)
	}
	if meta.Name != name {
		return nil, NewLoadingError(name, fmt.Errorf("module declares name '%s'", meta.Name))
	}

	return &Handle{
		name:     name,
		path:     path,
		source:   source,
		plugin:   p,
		meta:     meta,
		env:      env,
		log:      log.With("plugin", name),
		running:  make(map[string]*serviceEntry),
		starting: make(map[string]struct{}),
	}, nil
}

// Name returns the plugin name.
func (h *Handle) Name() string { return h.name }

// Path returns the resolved directory the plugin was loaded from.
func (h *Handle) Path() string { return h.path }

// Source describes where the plugin came from: a shared object file or "builtin".
func (h *Handle) Source() string { return h.source }

// Metadata returns the plugin's declared metadata.
func (h *Handle) Metadata() PluginMetadata { return h.meta }

// CheckVersionRequirement verifies that the host version satisfies every
// clause the plugin requires.
func (h *Handle) CheckVersionRequirement() error {
	req, err := h.meta.Requirement()
	if err != nil {
		return NewLoadingError(h.name, err)
	}

	host, err := semver.Parse(h.env.HostVersion)
	if err != nil {
		return NewLoadingError(h.name, fmt.Errorf("host version: %w", err))
	}

	if failed := req.Unsatisfied(host); len(failed) > 0 {
		return NewLoadingError(h.name, &UnmetRequirementError{
			Requirement: req.String(),
			Host:        host.String(),
			Failed:      failed,
		})
	}
	return nil
}

// EncryptTypes lists the enabled encryption capabilities in sorted order.
func (h *Handle) EncryptTypes() ([]string, error) {
	if err := h.index(); err != nil {
		return nil, err
	}
	return sortedKeys(h.encrypt), nil
}

// ServiceTypes lists the enabled background services in sorted order.
func (h *Handle) ServiceTypes() ([]string, error) {
	if err := h.index(); err != nil {
		return nil, err
	}
	return sortedKeys(h.services), nil
}

// EncryptCapability returns an enabled encryption capability by name.
func (h *Handle) EncryptCapability(name string) (*Capability, error) {
	if err := h.index(); err != nil {
		return nil, err
	}
	c, ok := h.encrypt[name]
	if !ok {
		return nil, &CapabilityNotFoundError{Plugin: h.name, Kind: KindEncrypt, Name: name}
	}
	return c, nil
}

// ServiceCapability returns an enabled service capability by name.
func (h *Handle) ServiceCapability(name string) (*Capability, error) {
	if err := h.index(); err != nil {
		return nil, err
	}
	c, ok := h.services[name]
	if !ok {
		return nil, &CapabilityNotFoundError{Plugin: h.name, Kind: KindService, Name: name}
	}
	return c, nil
}

// ExecuteEncrypt runs the "encrypt" phase of an encryption capability.
func (h *Handle) ExecuteEncrypt(ctx context.Context, capability string, payload []byte, overrides map[string]any) ([]byte, error) {
	return h.executeCrypto(ctx, capability, PhaseEncrypt, payload, overrides)
}

// ExecuteDecrypt runs the "decrypt" phase of an encryption capability.
func (h *Handle) ExecuteDecrypt(ctx context.Context, capability string, payload []byte, overrides map[string]any) ([]byte, error) {
	return h.executeCrypto(ctx, capability, PhaseDecrypt, payload, overrides)
}

func (h *Handle) executeCrypto(ctx context.Context, capability, phaseName string, payload []byte, overrides map[string]any) ([]byte, error) {
	c, err := h.EncryptCapability(capability)
	if err != nil {
		return nil, err
	}
	phase, ok := c.Phase(phaseName)
	if !ok {
		return nil, &PhaseNotFoundError{Capability: capability, Phase: phaseName}
	}

	callCtx := h.baseContext()
	callCtx[ContextKeyPayload] = payload

	target := capability + "." + phaseName
	out, err := h.runPhase(ctx, phase, target, overrides, callCtx)
	if err != nil {
		h.log.Debug("capability failed", "capability", capability, "phase", phaseName, "error", err.Error())
		return nil, err
	}

	switch v := out.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, NewRuntimeError(h.name, target, fmt.Errorf("returned %T, want []byte", out))
	}
}

// baseContext assembles host paths and the plugin's own config section. The
// section is available both as a nested map under the plugin name and as
// flattened "<plugin>.<key>" entries for use in templates.
func (h *Handle) baseContext() Context {
	c := make(Context, len(h.env.Paths)+8)
	for k, v := range h.env.Paths {
		c[k] = v
	}

	if h.env.Sections == nil {
		return c
	}
	section := h.env.Sections.Section(h.name)
	if section == nil {
		return c
	}

	nested := make(map[string]string, len(section))
	for k, v := range section {
		nested[k] = v
		c[h.name+"."+k] = v
	}
	c[h.name] = nested
	return c
}

func (h *Handle) runPhase(ctx context.Context, phase Phase, target string, overrides map[string]any, c Context) (any, error) {
	out, err := Invoke(ctx, phase.Func, phase.Params, overrides, c)
	if err != nil {
		var runtimeErr *RuntimeError
		if errors.As(err, &runtimeErr) {
			if runtimeErr.Plugin == "" {
				runtimeErr.Plugin = h.name
			}
			if runtimeErr.Target == "" {
				runtimeErr.Target = target
			}
		}
		return nil, err
	}
	return out, nil
}

func (h *Handle) index() error {
	h.indexOnce.Do(func() {
		if p, ok := h.plugin.(EncryptProvider); ok {
			h.encrypt, h.indexErr = h.collect(KindEncrypt, p.EncryptTypes())
			if h.indexErr != nil {
				return
			}
		}
		if p, ok := h.plugin.(ServiceProvider); ok {
			h.services, h.indexErr = h.collect(KindService, p.ServiceTypes())
		}
	})
	return h.indexErr
}

func (h *Handle) collect(kind string, caps map[string]*Capability) (map[string]*Capability, error) {
	out := make(map[string]*Capability, len(caps))
	for name, c := range caps {
		if c == nil {
			return nil, NewLoadingError(h.name, fmt.Errorf("%s capability '%s' is nil and cannot report whether it is disabled", kind, name))
		}
		if c.IsDisabled() {
			continue
		}
		for phaseName, phase := range c.Phases {
			if phase.Func == nil {
				return nil, NewLoadingError(h.name, fmt.Errorf("%s capability '%s' phase '%s' has no callable", kind, name, phaseName))
			}
			if err := ValidateParameters(phase.Params); err != nil {
				return nil, NewLoadingError(h.name, fmt.Errorf("%s capability '%s' phase '%s': %w", kind, name, phaseName, err))
			}
		}
		out[name] = c
	}
	return out, nil
}

func sortedKeys(m map[string]*Capability) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
