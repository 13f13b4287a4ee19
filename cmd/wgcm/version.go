package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/semver"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// pluginAPIVersion is the host version plugins are checked against when the
// build carries no release version.
const pluginAPIVersion = "0.3.0"

func hostVersion() string {
	v := strings.TrimPrefix(version, "v")
	if _, err := semver.Parse(v); err == nil {
		return v
	}
	return pluginAPIVersion
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "wgcm %s\nplugin api: %s\ncommit: %s\nbuilt: %s\n", version, hostVersion(), commit, date)
			return nil
		},
	}

	return cmd
}
