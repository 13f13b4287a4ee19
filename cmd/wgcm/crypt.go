package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/plugin"
	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

type cryptOp string

const (
	cryptEncrypt cryptOp = plugin.PhaseEncrypt
	cryptDecrypt cryptOp = plugin.PhaseDecrypt
)

type cryptOptions struct {
	plugin     string
	capability string
	in         string
	out        string
	set        []string
}

func newCryptCmd(rootFlags *rootFlags, op cryptOp) *cobra.Command {
	opts := &cryptOptions{}

	cmd := &cobra.Command{
		Use:   string(op),
		Short: cryptShort(op),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrypt(cmd, rootFlags, op, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.plugin, "plugin", "P", "", "Plugin providing the encryption type")
	cmd.Flags().StringVarP(&opts.capability, "type", "t", "", "Encryption type (default: the plugin's only type)")
	cmd.Flags().StringVarP(&opts.in, "in", "i", "-", "Input file, - for stdin")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "-", "Output file, - for stdout")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Override a plugin parameter as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("plugin")

	return cmd
}

func cryptShort(op cryptOp) string {
	if op == cryptDecrypt {
		return "Decrypt a payload with a plugin encryption type"
	}
	return "Encrypt a payload with a plugin encryption type"
}

func runCrypt(cmd *cobra.Command, rootFlags *rootFlags, op cryptOp, opts *cryptOptions) error {
	operation := string(op) + " payload"

	overrides, err := parseOverrides(opts.set)
	if err != nil {
		return newCommandError(operation, "parsing --set", err, "Use --set key=value.")
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}

	_, h, err := app.pluginHandle(opts.plugin)
	if err != nil {
		return newCommandError(operation, fmt.Sprintf("loading plugin %q", opts.plugin), err, "Run 'wgcm plugins' to see the loaded plugins.")
	}

	capability, err := chooseCapability(h, opts.capability)
	if err != nil {
		return newCommandError(operation, "choosing an encryption type", err, "Pass --type; 'wgcm plugins' lists the available types.")
	}

	payload, err := readInput(cmd, opts.in)
	if err != nil {
		return newCommandError(operation, "reading input", err, "Check the --in path.")
	}

	var result []byte
	if op == cryptEncrypt {
		result, err = h.ExecuteEncrypt(cmd.Context(), capability, payload, overrides)
	} else {
		result, err = h.ExecuteDecrypt(cmd.Context(), capability, payload, overrides)
	}
	if err != nil {
		var encErr *wgcmerrors.EncryptionError
		if !errors.As(err, &encErr) {
			err = wgcmerrors.NewEncryptionError(capability, string(op), err)
		}
		return newCommandError(operation, fmt.Sprintf("running %s.%s", h.Name(), capability), err, "Check the plugin section of the configuration and any --set values.")
	}

	if err := writeOutput(cmd, opts.out, result); err != nil {
		return newCommandError(operation, "writing output", err, "Check the --out path.")
	}
	app.Log.Debug("payload processed", "plugin", h.Name(), "type", capability, "op", string(op), "bytes", len(result))
	return nil
}

func chooseCapability(h *plugin.Handle, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	types, err := h.EncryptTypes()
	if err != nil {
		return "", err
	}
	switch len(types) {
	case 0:
		return "", fmt.Errorf("plugin %s offers no encryption types", h.Name())
	case 1:
		return types[0], nil
	default:
		return "", fmt.Errorf("plugin %s offers several encryption types: %s", h.Name(), strings.Join(types, ", "))
	}
}

// parseOverrides turns key=value pairs into parameter overrides.
func parseOverrides(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%q is not key=value", pair)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%q is set more than once", key)
		}
		out[key] = value
	}
	return out, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
