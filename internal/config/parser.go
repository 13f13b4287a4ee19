package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/alexisbeaulieu97/wgcm/internal/logger"
	"github.com/alexisbeaulieu97/wgcm/internal/paths"
	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

//go:embed default.ini
var defaultINI []byte

var loadOptions = ini.LoadOptions{
	InsensitiveKeys:     true,
	IgnoreInlineComment: true,
	AllowBooleanKeys:    true,
}

// Config is a parsed configuration file.
type Config struct {
	path  string
	file  *ini.File
	paths map[string]string
	log   *logger.Logger
}

// DefaultINI returns a copy of the configuration written on first run.
func DefaultINI() []byte {
	return bytes.Clone(defaultINI)
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wgcmerrors.NewParseError(path, 0, err)
	}

	return parse(path, data)
}

// Parse parses configuration from memory. The result has no backing file
// until SaveTo is called.
func Parse(data []byte) (*Config, error) {
	return parse("", data)
}

func parse(path string, data []byte) (*Config, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		name := path
		if name == "" {
			name = "<memory>"
		}
		return nil, wgcmerrors.NewParseError(name, 0, err)
	}
	return &Config{path: path, file: f}, nil
}

// Bootstrap loads the configuration at path, writing the default
// configuration there first when the file does not exist. The second
// result reports whether the file was created.
func Bootstrap(path string) (*Config, bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		cfg, err := Load(path)
		return cfg, false, err
	case !errors.Is(err, fs.ErrNotExist):
		return nil, false, wgcmerrors.NewParseError(path, 0, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, false, fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, defaultINI, 0o600); err != nil {
		return nil, false, fmt.Errorf("write default config: %w", err)
	}

	cfg, err := parse(path, defaultINI)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Path returns the file the configuration was loaded from or last saved to.
func (c *Config) Path() string { return c.path }

// SetPaths installs the values used to expand {APP_DIR}-style placeholders
// in the values returned by Section.
func (c *Config) SetPaths(values map[string]string) {
	c.paths = values
}

// SetLogger sets the logger that receives placeholder expansion failures.
func (c *Config) SetLogger(log *logger.Logger) {
	c.log = log
}

// HasSection reports whether the named section exists.
func (c *Config) HasSection(name string) bool {
	return c.file.HasSection(name)
}

// Section returns the keys of the named section with path placeholders
// expanded, or nil when the section does not exist. A value that fails to
// expand is returned unchanged and the failure is logged at debug level.
func (c *Config) Section(name string) map[string]string {
	sec, err := c.file.GetSection(name)
	if err != nil {
		return nil
	}

	out := make(map[string]string, len(sec.Keys()))
	for _, key := range sec.Keys() {
		out[key.Name()] = c.expand(key.Value())
	}
	return out
}

func (c *Config) expand(v string) string {
	if c.paths == nil || !strings.ContainsAny(v, "{~") {
		return v
	}
	expanded, err := paths.Expand(v, c.paths)
	if err != nil {
		c.log.Debug("keeping unexpanded config value", "value", v, "error", err.Error())
		return v
	}
	return expanded
}

// Get returns the raw value of section.key.
func (c *Config) Get(section, key string) (string, bool) {
	sec, err := c.file.GetSection(section)
	if err != nil {
		return "", false
	}
	k, err := sec.GetKey(key)
	if err != nil {
		return "", false
	}
	return k.Value(), true
}

// Set assigns section.key, creating the section when needed.
func (c *Config) Set(section, key, value string) {
	c.file.Section(section).Key(key).SetValue(value)
}

// Extension decodes and validates the [Extension] section. Plugins are
// declared as "plugin_path_<name> = <dir>" and keep their file order.
func (c *Config) Extension() (Extension, error) {
	var ext Extension

	sec, err := c.file.GetSection(SectionExtension)
	if err != nil {
		return ext, nil
	}

	for _, key := range sec.Keys() {
		name := key.Name()
		switch {
		case name == KeyPolicy:
			ext.Policy = strings.ToLower(strings.TrimSpace(key.Value()))
		case strings.HasPrefix(name, KeyPluginPathPrefix):
			ext.Plugins = append(ext.Plugins, PluginEntry{
				Name: strings.TrimPrefix(name, KeyPluginPathPrefix),
				Path: strings.TrimSpace(key.Value()),
			})
		}
	}

	if err := ValidateExtension(ext); err != nil {
		return Extension{}, err
	}
	return ext, nil
}

// Devices lists device section names in file order. Reserved sections and
// sections belonging to declared plugins are excluded.
func (c *Config) Devices() []string {
	reserved := map[string]struct{}{
		SectionDefault:   {},
		SectionExtension: {},
		SectionWireGuard: {},
	}
	if sec, err := c.file.GetSection(SectionExtension); err == nil {
		for _, key := range sec.Keys() {
			if strings.HasPrefix(key.Name(), KeyPluginPathPrefix) {
				reserved[strings.TrimPrefix(key.Name(), KeyPluginPathPrefix)] = struct{}{}
			}
		}
	}

	var names []string
	for _, sec := range c.file.Sections() {
		if _, skip := reserved[sec.Name()]; skip {
			continue
		}
		names = append(names, sec.Name())
	}
	return names
}

// Device decodes and validates a device section.
func (c *Config) Device(name string) (Device, error) {
	sec, err := c.file.GetSection(name)
	if err != nil || isReserved(name) {
		return Device{}, wgcmerrors.NewConfigError(name, "no such device in config", nil)
	}

	get := func(key string) string {
		if !sec.HasKey(key) {
			return ""
		}
		return strings.TrimSpace(sec.Key(key).Value())
	}

	dev := Device{
		Name:       name,
		PrivateKey: get(KeyPrivateKey),
		PublicKey:  get(KeyPublicKey),
		Address:    splitList(get(KeyAddress)),
		AllowedIPs: splitList(get(KeyAllowedIPs)),
		Endpoint:   get(KeyEndpoint),
		DNS:        splitList(get(KeyDNS)),
	}

	if v := get(KeyPublicKeyGenerated); v != "" {
		dev.PublicKeyAutoGenerated, err = strconv.ParseBool(v)
		if err != nil {
			return Device{}, wgcmerrors.NewValidationError(name+"."+KeyPublicKeyGenerated, "must be a boolean", err)
		}
	}
	if v := get(KeyPersistentKeepalive); v != "" {
		dev.PersistentKeepalive, err = strconv.Atoi(v)
		if err != nil {
			return Device{}, wgcmerrors.NewValidationError(name+"."+KeyPersistentKeepalive, "must be a number of seconds", err)
		}
	}
	if v := get(KeyListenPort); v != "" {
		dev.ListenPort, err = strconv.Atoi(v)
		if err != nil {
			return Device{}, wgcmerrors.NewValidationError(name+"."+KeyListenPort, "must be a port number", err)
		}
	}

	if err := ValidateDevice(dev); err != nil {
		return Device{}, err
	}
	return dev, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no backing file")
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the configuration to path and makes it the backing file.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	c.path = path
	return nil
}

// WriteTo serialises the configuration in INI form.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	return c.file.WriteTo(w)
}

func isReserved(name string) bool {
	switch name {
	case SectionDefault, SectionExtension, SectionWireGuard:
		return true
	}
	return false
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
