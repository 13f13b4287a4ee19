package plugin

import (
	"fmt"
	"os"
	"strings"
)

// LoadPolicy controls how LoadAll responds to a plugin that fails to load.
type LoadPolicy string

const (
	// PolicyStrict fails fast on the first plugin that cannot be loaded.
	PolicyStrict LoadPolicy = "strict"
	// PolicyGraceful logs the failure and continues with the other plugins.
	PolicyGraceful LoadPolicy = "graceful"
)

// ParseLoadPolicy converts a configuration value into a LoadPolicy. An empty
// value yields the environment-aware default.
func ParseLoadPolicy(s string) (LoadPolicy, error) {
	switch LoadPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultConfig().Policy, nil
	case PolicyStrict:
		return PolicyStrict, nil
	case PolicyGraceful:
		return PolicyGraceful, nil
	default:
		return "", fmt.Errorf("unknown plugin load policy %q (expected strict or graceful)", s)
	}
}

// LoaderConfig configures plugin loading.
type LoaderConfig struct {
	Policy LoadPolicy
	// SharedObjects enables loading <path>/<name>.so Go plugins.
	SharedObjects bool
}

// DefaultConfig returns environment-aware defaults for the loader configuration.
func DefaultConfig() *LoaderConfig {
	if isCIEnvironment() {
		return &LoaderConfig{Policy: PolicyStrict, SharedObjects: true}
	}

	return &LoaderConfig{Policy: PolicyGraceful, SharedObjects: true}
}

func isCIEnvironment() bool {
	ciEnvVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_HOME",
	}

	for _, key := range ciEnvVars {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" && strings.ToLower(value) != "false" && value != "0" {
			return true
		}
	}

	return false
}
