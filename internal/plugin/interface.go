package plugin

// Lifecycle phase names understood by the host.
const (
	PhaseEncrypt  = "encrypt"
	PhaseDecrypt  = "decrypt"
	PhaseNew      = "new"
	PhaseTeardown = "teardown"
)

// Plugin is the contract every loadable plugin satisfies. Capabilities are
// exposed through the optional EncryptProvider and ServiceProvider
// interfaces; the loader detects them via type assertion.
type Plugin interface {
	// PluginMetadata returns identity and the host version requirement.
	PluginMetadata() PluginMetadata
}

// EncryptProvider is implemented by plugins offering encryption algorithms.
// Each capability should declare both an "encrypt" and a "decrypt" phase.
type EncryptProvider interface {
	EncryptTypes() map[string]*Capability
}

// ServiceProvider is implemented by plugins offering background services.
// A service may declare a "new" constructor, a "teardown" phase and any
// number of additional phases reachable through CallService.
type ServiceProvider interface {
	ServiceTypes() map[string]*Capability
}

// Capability is one pluggable feature: an encryption algorithm or a
// background service.
type Capability struct {
	Description string
	// Disabled capabilities are hidden from discovery.
	Disabled bool
	Phases   map[string]Phase
}

// Phase pairs a callable with the parameters it accepts.
type Phase struct {
	Func   Func
	Params []Parameter
}

// Phase looks up a lifecycle phase by name.
func (c *Capability) Phase(name string) (Phase, bool) {
	if c == nil {
		return Phase{}, false
	}
	p, ok := c.Phases[name]
	return p, ok
}

// IsDisabled reports whether the capability is hidden from discovery.
func (c *Capability) IsDisabled() bool {
	return c != nil && c.Disabled
}

// Factory builds a fresh plugin instance.
type Factory func() Plugin
