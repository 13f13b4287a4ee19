// Package paths resolves the directories and files the host works with.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"

	"github.com/alexisbeaulieu97/wgcm/internal/placeholder"
)

// Placeholder names usable in plugin paths and templates.
const (
	KeyAppDir     = "APP_DIR"
	KeyConfigDir  = "CONFIG_DIR"
	KeyConfigFile = "CONFIG_FILE"
)

const (
	// DirName is the application's directory under the user config dir.
	DirName = "wg_config_manager"
	// FileName is the configuration file name inside the config dir.
	FileName = "config.ini"
)

// Map holds the host's resolved paths. Fields can be overridden from the
// environment.
type Map struct {
	AppDir     string `env:"WGCM_APP_DIR"`
	ConfigDir  string `env:"WGCM_CONFIG_DIR"`
	ConfigFile string `env:"WGCM_CONFIG_FILE"`
}

// Default computes paths from the running executable and the user config dir.
func Default() (Map, error) {
	exe, err := os.Executable()
	if err != nil {
		return Map{}, fmt.Errorf("locate executable: %w", err)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return Map{}, fmt.Errorf("locate user config dir: %w", err)
	}

	dir := filepath.Join(base, DirName)
	return Map{
		AppDir:     filepath.Dir(exe),
		ConfigDir:  dir,
		ConfigFile: filepath.Join(dir, FileName),
	}, nil
}

// FromEnv returns Default with WGCM_* environment overrides applied. When
// only the config dir is overridden, the config file moves with it.
func FromEnv() (Map, error) {
	m, err := Default()
	if err != nil {
		return Map{}, err
	}
	return m.applyEnv()
}

func (m Map) applyEnv() (Map, error) {
	defaultFile := m.ConfigFile

	if err := envdecode.Decode(&m); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Map{}, fmt.Errorf("decode path overrides: %w", err)
	}

	if m.ConfigFile == defaultFile && os.Getenv("WGCM_CONFIG_FILE") == "" {
		m.ConfigFile = filepath.Join(m.ConfigDir, FileName)
	}

	var err error
	for _, p := range []*string{&m.AppDir, &m.ConfigDir, &m.ConfigFile} {
		if *p, err = ExpandHome(*p); err != nil {
			return Map{}, err
		}
	}
	return m, nil
}

// WithConfigFile returns a copy of m pointing at file. The config dir follows
// the file.
func (m Map) WithConfigFile(file string) (Map, error) {
	file, err := ExpandHome(file)
	if err != nil {
		return Map{}, err
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return Map{}, err
	}
	m.ConfigFile = abs
	m.ConfigDir = filepath.Dir(abs)
	return m, nil
}

// Values exposes the paths keyed by placeholder name.
func (m Map) Values() map[string]string {
	return map[string]string{
		KeyAppDir:     m.AppDir,
		KeyConfigDir:  m.ConfigDir,
		KeyConfigFile: m.ConfigFile,
	}
}

// Expand substitutes path placeholders and a leading "~" in s.
func (m Map) Expand(s string) (string, error) {
	return Expand(s, m.Values())
}

// Expand substitutes {NAME} placeholders from values, then expands a leading
// "~" to the user's home directory.
func Expand(s string, values map[string]string) (string, error) {
	out, err := placeholder.Format(s, placeholder.FromMap(values))
	if err != nil {
		return "", err
	}
	return ExpandHome(out)
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", p, err)
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}
