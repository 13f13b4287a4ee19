package plugin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/wgcm/internal/semver"
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// PluginMetadata describes plugin identity and host compatibility.
type PluginMetadata struct {
	Name    string
	Version string
	// Requires is the host version requirement, e.g. ">=0.1.0, <1.0.0".
	Requires    string
	Description string
}

// Validate ensures metadata is well-formed.
func (m PluginMetadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("plugin metadata requires a non-empty Name")
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("plugin '%s' has invalid Name (expected letters, digits, '_' or '-')", m.Name)
	}
	if strings.TrimSpace(m.Requires) == "" {
		return &MissingDeclarationError{Field: "Requires"}
	}
	if m.Version != "" {
		if _, err := semver.Parse(m.Version); err != nil {
			return fmt.Errorf("plugin '%s' has invalid Version: %w", m.Name, err)
		}
	}
	return nil
}

// Requirement parses the declared host version requirement.
func (m PluginMetadata) Requirement() (semver.Requirement, error) {
	return semver.ParseRequirement(m.Requires)
}
