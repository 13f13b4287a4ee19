package plugin

import (
	"fmt"
	"sort"
	"sync"
)

var (
	builtinMu sync.RWMutex
	builtins  = make(map[string]Factory)
)

// RegisterBuiltin makes a plugin compiled into the host loadable by name.
// Built-in plugins call it from init.
func RegisterBuiltin(name string, f Factory) error {
	if f == nil {
		return NewLoadingError(name, fmt.Errorf("factory is nil"))
	}

	builtinMu.Lock()
	defer builtinMu.Unlock()

	if _, exists := builtins[name]; exists {
		return NewLoadingError(name, fmt.Errorf("built-in plugin already registered"))
	}

	builtins[name] = f
	return nil
}

// MustRegisterBuiltin is RegisterBuiltin that panics on failure.
func MustRegisterBuiltin(name string, f Factory) {
	if err := RegisterBuiltin(name, f); err != nil {
		panic(err)
	}
}

// LookupBuiltin retrieves a built-in plugin factory by name.
func LookupBuiltin(name string) (Factory, bool) {
	builtinMu.RLock()
	defer builtinMu.RUnlock()

	f, ok := builtins[name]
	return f, ok
}

// Builtins lists the registered built-in plugin names in sorted order.
func Builtins() []string {
	builtinMu.RLock()
	defer builtinMu.RUnlock()

	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// unregisterBuiltin removes one registration (for tests).
func unregisterBuiltin(name string) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	delete(builtins, name)
}
