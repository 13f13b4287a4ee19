package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/wgcm/internal/config"
	"github.com/alexisbeaulieu97/wgcm/internal/logger"
	"github.com/alexisbeaulieu97/wgcm/internal/paths"
)

const sourceBuiltin = "builtin"

type handleKey struct {
	path string
	name string
}

// Loader locates, validates and caches plugins. Each (path, name) pair is
// loaded at most once per Loader.
type Loader struct {
	// importMu serializes lookup, open and validation across the loader.
	importMu sync.Mutex

	mu      sync.RWMutex
	handles map[handleKey]*Handle
	opened  map[string]*Handle

	config *LoaderConfig
	env    Environment
	log    *logger.Logger
	open   opener
}

// NewLoader creates a loader. A nil cfg selects DefaultConfig.
func NewLoader(cfg *LoaderConfig, env Environment, log *logger.Logger) *Loader {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Loader{
		handles: make(map[handleKey]*Handle),
		opened:  make(map[string]*Handle),
		config:  cfg,
		env:     env,
		log:     log,
		open:    openSharedObject,
	}
}

// Policy reports the loader's failure policy.
func (l *Loader) Policy() LoadPolicy {
	return l.config.Policy
}

// ExpandPath substitutes host path placeholders and "~" in path.
func (l *Loader) ExpandPath(path string) (string, error) {
	expanded, err := paths.Expand(path, l.env.Paths)
	if err != nil {
		return "", err
	}
	if expanded == "" {
		return "", nil
	}
	return filepath.Clean(expanded), nil
}

// Load locates the named plugin under path and validates its declarations.
// It does not check the version requirement; see Open.
func (l *Loader) Load(path, name string) (*Handle, error) {
	dir, err := l.ExpandPath(path)
	if err != nil {
		return nil, NewLoadingError(name, fmt.Errorf("expand path %q: %w", path, err))
	}

	key := handleKey{path: dir, name: name}

	l.importMu.Lock()
	defer l.importMu.Unlock()

	l.mu.RLock()
	cached, ok := l.handles[key]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	p, source, err := l.locate(dir, name)
	if err != nil {
		return nil, err
	}

	h, err := newHandle(name, dir, source, p, l.env, l.log)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.handles[key] = h
	l.mu.Unlock()

	l.log.Debug("plugin loaded", "plugin", name, "path", dir, "source", source)
	return h, nil
}

func (l *Loader) locate(dir, name string) (Plugin, string, error) {
	if l.config.SharedObjects && dir != "" {
		file := sharedObjectPath(dir, name)
		if sharedObjectExists(file) {
			p, err := l.open(file)
			if err != nil {
				return nil, "", NewLoadingError(name, fmt.Errorf("open %s: %w", file, err))
			}
			return p, file, nil
		}
	}

	if factory, ok := LookupBuiltin(name); ok {
		p := factory()
		if p == nil {
			return nil, "", NewLoadingError(name, errors.New("built-in factory returned nil"))
		}
		return p, sourceBuiltin, nil
	}

	return nil, "", ErrPluginNotFound{Name: name, Path: dir}
}

// Open loads a plugin, checks its version requirement against the host and
// discovers its capabilities. The handle becomes visible through Get only
// when every step succeeds.
func (l *Loader) Open(path, name string) (*Handle, error) {
	h, err := l.Load(path, name)
	if err != nil {
		return nil, err
	}

	if err := h.CheckVersionRequirement(); err != nil {
		l.log.Warn("plugin rejected by version requirement", "plugin", name, "requires", h.meta.Requires, "host", l.env.HostVersion)
		return nil, err
	}
	if _, err := h.EncryptTypes(); err != nil {
		return nil, err
	}
	if _, err := h.ServiceTypes(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.opened[name]; ok && existing != h {
		return nil, NewLoadingError(name, fmt.Errorf("already loaded from %s", existing.path))
	}
	l.opened[name] = h

	l.log.Info("plugin ready", "plugin", name, "path", h.path, "source", h.source, "version", h.meta.Version)
	return h, nil
}

// LoadAll opens every entry according to the loader's policy. Under
// PolicyStrict the first failure is returned; under PolicyGraceful failing
// plugins are logged and skipped.
func (l *Loader) LoadAll(entries []config.PluginEntry) (map[string]*Handle, error) {
	out := make(map[string]*Handle, len(entries))

	for _, entry := range entries {
		h, err := l.Open(entry.Path, entry.Name)
		if err != nil {
			if l.config.Policy == PolicyStrict {
				return nil, err
			}
			l.log.Warn("skipping plugin", "plugin", entry.Name, "path", entry.Path, "error", err.Error())
			continue
		}
		out[entry.Name] = h
	}

	return out, nil
}

// Get returns an opened plugin by name.
func (l *Loader) Get(name string) (*Handle, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	h, ok := l.opened[name]
	if !ok {
		return nil, ErrPluginNotFound{Name: name}
	}
	return h, nil
}

// List returns the names of opened plugins in sorted order.
func (l *Loader) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.opened))
	for name := range l.opened {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close stops every running service of every opened plugin.
func (l *Loader) Close(ctx context.Context) error {
	var errs []error
	for _, name := range l.List() {
		h, err := l.Get(name)
		if err != nil {
			continue
		}
		if err := h.StopAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
