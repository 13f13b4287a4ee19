package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/wireguard"
)

type statusOptions struct {
	output string
}

func newStatusCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status [interface]",
		Short: "Show live WireGuard interfaces and name their peers from the configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runStatus(cmd, rootFlags, name, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or yaml")

	return cmd
}

func runStatus(cmd *cobra.Command, rootFlags *rootFlags, name string, opts *statusOptions) error {
	if err := validateOutput(opts.output); err != nil {
		return newCommandError("show status", "parsing flags", err, "Use --output table or --output yaml.")
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}

	statuses, err := wireguard.Inspect(name)
	if err != nil {
		return newCommandError("show status", "reading WireGuard interfaces", err, "Run as root or check that the WireGuard module is loaded.")
	}
	wireguard.AnnotatePeers(statuses, app.Config)

	if opts.output == outputYAML {
		return writeYAML(cmd.OutOrStdout(), statuses)
	}
	return renderStatusTable(cmd, statuses)
}

func renderStatusTable(cmd *cobra.Command, statuses []wireguard.InterfaceStatus) error {
	if len(statuses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No WireGuard interfaces found.")
		return nil
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, st := range statuses {
		fmt.Fprintf(writer, "interface %s (%s) port %d\n", st.Name, st.Type, st.ListenPort)
		fmt.Fprintln(writer, "DEVICE\tPUBLIC KEY\tENDPOINT\tALLOWED IPS\tHANDSHAKE")
		for _, p := range st.Peers {
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
				valueOrFallback(p.Device, "(unknown)"),
				p.PublicKey,
				valueOrFallback(p.Endpoint, "-"),
				strings.Join(p.AllowedIPs, ", "),
				formatHandshake(p.LastHandshake),
			)
		}
		fmt.Fprintln(writer)
	}
	return writer.Flush()
}

func formatHandshake(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}

	delta := time.Since(ts)
	if delta < time.Minute {
		return "just now"
	}
	if delta < time.Hour {
		return fmt.Sprintf("%d minutes ago", int(delta.Minutes()))
	}
	if delta < 24*time.Hour {
		return fmt.Sprintf("%d hours ago", int(delta.Hours()))
	}

	return fmt.Sprintf("%d days ago", int(delta.Hours()/24))
}

func valueOrFallback(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
