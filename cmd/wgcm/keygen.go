package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/config"
	"github.com/alexisbeaulieu97/wgcm/internal/wireguard"
)

type keygenOptions struct {
	device string
	force  bool
}

func newKeygenCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &keygenOptions{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a WireGuard key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.device, "device", "d", "", "Store the key pair in this device section")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Replace an existing private key")

	return cmd
}

func runKeygen(cmd *cobra.Command, rootFlags *rootFlags, opts *keygenOptions) error {
	pair, err := wireguard.GenerateKeyPair()
	if err != nil {
		return newCommandError("generate keys", "reading randomness", err, "Retry; the system random source failed.")
	}

	if opts.device == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "private key = %s\npublic key = %s\n", pair.PrivateKey, pair.PublicKey)
		return nil
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}

	switch opts.device {
	case config.SectionDefault, config.SectionExtension, config.SectionWireGuard:
		return newCommandError("generate keys", fmt.Sprintf("storing keys in %q", opts.device), fmt.Errorf("%s is a reserved section", opts.device), "Choose a device name.")
	}
	if existing, ok := app.Config.Get(opts.device, config.KeyPrivateKey); ok && existing != "" && !opts.force {
		return newCommandError("generate keys", fmt.Sprintf("storing keys in %q", opts.device), fmt.Errorf("device already has a private key"), "Pass --force to replace it.")
	}

	app.Config.Set(opts.device, config.KeyPrivateKey, pair.PrivateKey)
	app.Config.Set(opts.device, config.KeyPublicKey, pair.PublicKey)
	app.Config.Set(opts.device, config.KeyPublicKeyGenerated, "True")
	if err := app.Config.Save(); err != nil {
		return newCommandError("generate keys", "saving configuration", err, "Check configuration file permissions.")
	}

	app.Log.Info("stored key pair", "device", opts.device, "path", app.Config.Path())
	fmt.Fprintf(cmd.OutOrStdout(), "public key = %s\n", pair.PublicKey)
	return nil
}
