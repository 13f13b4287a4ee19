// Package gpg provides the "gpg" built-in plugin: symmetric encryption
// through an external GnuPG binary.
package gpg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/wgcm/internal/plugin"
	"github.com/alexisbeaulieu97/wgcm/internal/plugins/internalexec"
	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

const (
	// Name is the plugin name and the name of its config section.
	Name = "gpg"
	// Capability is the encryption type the plugin offers.
	Capability = "GnuPG"

	version  = "0.2.0"
	requires = ">=0.1.0"
)

func init() {
	plugin.MustRegisterBuiltin(Name, New)
}

type runner func(ctx context.Context, c internalexec.Command) (internalexec.Result, error)

// Plugin runs gpg --symmetric / --decrypt with the payload on stdin.
type Plugin struct {
	run runner
}

// New returns the gpg plugin.
func New() plugin.Plugin {
	return &Plugin{run: internalexec.Run}
}

// PluginMetadata implements plugin.Plugin.
func (p *Plugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     version,
		Requires:    requires,
		Description: "Symmetric encryption with GnuPG",
	}
}

// EncryptTypes implements plugin.EncryptProvider.
func (p *Plugin) EncryptTypes() map[string]*plugin.Capability {
	return map[string]*plugin.Capability{
		Capability: {
			Description: "gpg --symmetric using a passphrase file",
			Phases: map[string]plugin.Phase{
				plugin.PhaseEncrypt: {Func: p.encrypt, Params: parameters()},
				plugin.PhaseDecrypt: {Func: p.decrypt, Params: parameters()},
			},
		},
	}
}

func parameters() []plugin.Parameter {
	return []plugin.Parameter{
		{
			Name:    "gpg_path",
			Default: plugin.Template("{gpg.path}"),
			Helper:  "path to the gpg executable",
		},
		{
			Name:    "passphrase_file",
			Default: plugin.Template("{gpg.passphrase_file}"),
			Helper:  "file holding the symmetric passphrase",
		},
		{
			Name:       "timeout",
			Default:    plugin.Template("{gpg.timeout}"),
			Helper:     "seconds to wait for gpg",
			BeforePass: parseTimeout,
		},
		{
			Name:    "payload",
			Default: plugin.FromContext(plugin.ContextKeyPayload),
		},
	}
}

func (p *Plugin) encrypt(ctx context.Context, args plugin.Args) (any, error) {
	out, err := p.gpg(ctx, args, "--symmetric")
	if err != nil {
		return nil, wgcmerrors.NewEncryptionError(Capability, plugin.PhaseEncrypt, err)
	}
	return out, nil
}

func (p *Plugin) decrypt(ctx context.Context, args plugin.Args) (any, error) {
	out, err := p.gpg(ctx, args, "--decrypt")
	if err != nil {
		return nil, wgcmerrors.NewEncryptionError(Capability, plugin.PhaseDecrypt, err)
	}
	return out, nil
}

func (p *Plugin) gpg(ctx context.Context, args plugin.Args, mode string) ([]byte, error) {
	passphraseFile := args.String("passphrase_file")
	if passphraseFile == "" {
		return nil, fmt.Errorf("passphrase_file is not set")
	}
	timeout, err := args.Duration("timeout")
	if err != nil {
		return nil, err
	}

	res, err := p.run(ctx, internalexec.Command{
		Path: args.String("gpg_path"),
		Args: []string{
			"--batch", "--yes", "--quiet",
			"--pinentry-mode", "loopback",
			"--passphrase-file", passphraseFile,
			"--output", "-",
			mode,
		},
		Stdin:   args.Bytes("payload"),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// parseTimeout accepts a number of seconds ("30", "2.5"), a Go duration
// ("500ms") or a time.Duration.
func parseTimeout(v any) (any, error) {
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Duration(0), nil
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			if secs < 0 {
				return nil, fmt.Errorf("timeout %q is negative", s)
			}
			return time.Duration(secs * float64(time.Second)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("timeout %q is neither seconds nor a duration", s)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("timeout has unsupported type %T", v)
	}
}
