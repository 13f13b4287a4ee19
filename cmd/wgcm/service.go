package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/components"
)

type serviceOptions struct {
	plugin string
	kind   string
	name   string
	set    []string
}

func newServiceCmd(rootFlags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run plugin background services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newServiceRunCmd(rootFlags))
	return cmd
}

func newServiceRunCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &serviceOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a service in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.plugin, "plugin", "P", "", "Plugin providing the service")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "", "Service type (default: the plugin's only service)")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Process name (default: the service type)")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Override a service parameter as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("plugin")

	return cmd
}

const serviceStopTimeout = 10 * time.Second

func runService(cmd *cobra.Command, rootFlags *rootFlags, opts *serviceOptions) error {
	overrides, err := parseOverrides(opts.set)
	if err != nil {
		return newCommandError("run service", "parsing --set", err, "Use --set key=value.")
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}

	loader, h, err := app.pluginHandle(opts.plugin)
	if err != nil {
		return newCommandError("run service", fmt.Sprintf("loading plugin %q", opts.plugin), err, "Run 'wgcm plugins' to see the loaded plugins.")
	}

	kind := opts.kind
	if kind == "" {
		kinds, err := h.ServiceTypes()
		if err != nil {
			return newCommandError("run service", "listing services", err, "Report the problem to the plugin author.")
		}
		if len(kinds) != 1 {
			return newCommandError("run service", "choosing a service", fmt.Errorf("plugin %s offers %d services: %v", h.Name(), len(kinds), kinds), "Pass --kind.")
		}
		kind = kinds[0]
	}
	name := opts.name
	if name == "" {
		name = kind
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inst, err := h.RunService(ctx, kind, name, overrides)
	if err != nil {
		return newCommandError("run service", fmt.Sprintf("starting %s.%s", h.Name(), kind), err, "Check the plugin section of the configuration and any --set values.")
	}

	msg := fmt.Sprintf("%s %s running as %q (id %s). Press Ctrl+C to stop.", h.Name(), kind, inst.ProcessName, inst.ID)
	if isTerminal(cmd.OutOrStdout()) {
		fmt.Fprintln(cmd.OutOrStdout(), components.InfoAlert(msg).View())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), serviceStopTimeout)
	defer cancel()
	if err := loader.Close(stopCtx); err != nil {
		return newCommandError("run service", "stopping "+name, err, "The service may need to be stopped by hand.")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s stopped\n", name)
	return nil
}
