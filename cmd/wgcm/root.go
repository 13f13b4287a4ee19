package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "wgcm",
		Short:         "wgcm renders WireGuard configs from a simple INI description of your devices",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file (default: <user config dir>/wg_config_manager/config.ini)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newRenderCmd(flags))
	cmd.AddCommand(newKeygenCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newPluginsCmd(flags))
	cmd.AddCommand(newCryptCmd(flags, cryptEncrypt))
	cmd.AddCommand(newCryptCmd(flags, cryptDecrypt))
	cmd.AddCommand(newServiceCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
