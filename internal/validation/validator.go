// Package validation runs preflight checks over a configuration: devices
// decode, and the tools and files plugins depend on are present.
package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alexisbeaulieu97/wgcm/internal/config"
	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

// sectionKeys maps plugin section keys to the check they imply.
var sectionKeys = map[string]Check{
	"path":            {Kind: KindCommand},
	"config":          {Kind: KindFile},
	"passphrase_file": {Kind: KindContains, Pattern: `\S`},
}

// Plan derives the checks for cfg. Paths must already be installed with
// SetPaths so that placeholders are expanded.
func Plan(cfg *config.Config) ([]Check, error) {
	ext, err := cfg.Extension()
	if err != nil {
		return nil, err
	}

	var checks []Check
	for _, name := range cfg.Devices() {
		checks = append(checks, Check{Kind: KindDevice, Subject: name, Target: name})
	}

	if path, ok := cfg.Get(config.SectionWireGuard, "path"); ok && strings.TrimSpace(path) != "" {
		checks = append(checks, Check{Kind: KindCommand, Subject: config.SectionWireGuard + ".path", Target: strings.TrimSpace(path)})
	}

	for _, entry := range ext.Plugins {
		section := cfg.Section(entry.Name)
		keys := make([]string, 0, len(section))
		for key := range section {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			tmpl, ok := sectionKeys[key]
			value := strings.TrimSpace(section[key])
			if !ok || value == "" {
				continue
			}
			tmpl.Subject = entry.Name + "." + key
			tmpl.Target = value
			checks = append(checks, tmpl)
		}
	}

	return checks, nil
}

// Run evaluates checks in order and returns one result per check. The error
// summarises every failure.
func Run(ctx context.Context, cfg *config.Config, checks []Check) ([]Result, error) {
	results := make([]Result, 0, len(checks))
	var failedMessages []string

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := Result{Check: check}

		var err error
		switch check.Kind {
		case KindCommand:
			err = CheckCommandExists(check.Target)
		case KindFile:
			err = CheckFileExists(check.Target)
		case KindContains:
			err = CheckPathContains(check.Target, check.Pattern)
		case KindDevice:
			_, err = cfg.Device(check.Target)
		default:
			err = wgcmerrors.NewValidationError("check.kind", fmt.Sprintf("unknown check kind %q", check.Kind), nil)
		}

		if err != nil {
			result.Message = err.Error()
			result.Error = err
			failedMessages = append(failedMessages, check.Subject+": "+err.Error())
		} else {
			result.Passed = true
			result.Message = "passed"
		}

		results = append(results, result)
	}

	if len(failedMessages) > 0 {
		return results, fmt.Errorf("checks failed: %s", strings.Join(failedMessages, "; "))
	}

	return results, nil
}
