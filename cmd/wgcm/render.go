package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/wireguard"
	"github.com/alexisbeaulieu97/wgcm/pkg/diff"
)

type renderOptions struct {
	peers  []string
	noSave bool
	write  string
	diff   string
}

func newRenderCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <device>",
		Short: "Print the WireGuard configuration of a device",
		Long: "Print the [Interface] block of a device followed by a [Peer] block for every other device.\n" +
			"Public keys missing from peers are derived from their private keys and saved back to the configuration.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, rootFlags, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.peers, "peer", "p", nil, "Only include this peer (repeatable)")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "Do not write derived public keys back to the configuration")
	cmd.Flags().StringVarP(&opts.write, "write", "w", "", "Write the configuration to this file instead of stdout")
	cmd.Flags().StringVar(&opts.diff, "diff", "", "Show changes against an existing configuration file instead of printing it")
	cmd.MarkFlagsMutuallyExclusive("write", "diff")

	return cmd
}

func runRender(cmd *cobra.Command, rootFlags *rootFlags, device string, opts *renderOptions) error {
	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}

	doc, err := wireguard.ConfigFor(app.Config, device, opts.peers)
	if err != nil {
		return newCommandError("render", fmt.Sprintf("building configuration for %q", device), err, "Run 'wgcm keygen --device "+device+"' to add keys, or check the device section.")
	}

	if len(doc.Derived) > 0 && !opts.noSave {
		if err := app.Config.Save(); err != nil {
			return newCommandError("render", "saving derived public keys", err, "Check configuration file permissions or pass --no-save.")
		}
		app.Log.Info("saved derived public keys", "devices", doc.Derived)
	}

	rendered := []byte(doc.String())

	switch {
	case opts.diff != "":
		current, err := os.ReadFile(opts.diff)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return newCommandError("render", "reading "+opts.diff, err, "Check the --diff path.")
		}
		changes := diff.Unified(current, rendered, opts.diff, device)
		if changes == "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s is up to date\n", opts.diff)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), changes)
	case opts.write != "":
		if err := os.WriteFile(opts.write, rendered, 0o600); err != nil {
			return newCommandError("render", "writing "+opts.write, err, "Check the --write path and its permissions.")
		}
		app.Log.Info("wrote wireguard configuration", "device", device, "path", opts.write)
	default:
		fmt.Fprint(cmd.OutOrStdout(), string(rendered))
	}
	return nil
}
