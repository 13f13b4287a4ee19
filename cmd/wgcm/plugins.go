package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/components"
	"github.com/alexisbeaulieu97/wgcm/internal/plugin"
)

type pluginsOptions struct {
	output string
}

func newPluginsCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &pluginsOptions{}

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Load the configured plugins and list their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlugins(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or yaml")

	return cmd
}

type pluginSummary struct {
	Name        string     `yaml:"name"`
	Version     string     `yaml:"version,omitempty"`
	Requires    string     `yaml:"requires"`
	Source      string     `yaml:"source"`
	Path        string     `yaml:"path,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Encrypt     []string   `yaml:"encrypt"`
	Services    []string   `yaml:"services"`
	Parameters  []paramRow `yaml:"parameters,omitempty"`
}

type paramRow struct {
	Target  string `yaml:"target"`
	Name    string `yaml:"name"`
	Default string `yaml:"default,omitempty"`
	Helper  string `yaml:"helper,omitempty"`
}

type pluginsPayload struct {
	Host    string          `yaml:"host"`
	Policy  string          `yaml:"policy"`
	Plugins []pluginSummary `yaml:"plugins"`
}

func runPlugins(cmd *cobra.Command, rootFlags *rootFlags, opts *pluginsOptions) error {
	if err := validateOutput(opts.output); err != nil {
		return newCommandError("list plugins", "parsing flags", err, "Use --output table or --output yaml.")
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}

	loader, handles, err := app.OpenPlugins()
	if err != nil {
		return newCommandError("list plugins", "loading plugins", err, "Fix the [Extension] section or set policy = graceful.")
	}

	payload := pluginsPayload{Host: hostVersion(), Policy: string(loader.Policy())}
	for _, name := range loader.List() {
		h := handles[name]
		if h == nil {
			continue
		}
		summary, err := summarize(h)
		if err != nil {
			return newCommandError("list plugins", fmt.Sprintf("inspecting %q", name), err, "Report the problem to the plugin author.")
		}
		payload.Plugins = append(payload.Plugins, summary)
	}

	if opts.output == outputYAML {
		return writeYAML(cmd.OutOrStdout(), payload)
	}
	if isTerminal(cmd.OutOrStdout()) {
		return renderPluginCards(cmd, payload)
	}
	return renderPluginTable(cmd, payload)
}

func summarize(h *plugin.Handle) (pluginSummary, error) {
	meta := h.Metadata()
	s := pluginSummary{
		Name:        h.Name(),
		Version:     meta.Version,
		Requires:    meta.Requires,
		Source:      h.Source(),
		Path:        h.Path(),
		Description: meta.Description,
		Encrypt:     []string{},
		Services:    []string{},
	}

	encrypt, err := h.EncryptTypes()
	if err != nil {
		return s, err
	}
	for _, name := range encrypt {
		c, err := h.EncryptCapability(name)
		if err != nil {
			return s, err
		}
		s.Encrypt = append(s.Encrypt, name)
		s.Parameters = append(s.Parameters, paramRows(name, c)...)
	}

	services, err := h.ServiceTypes()
	if err != nil {
		return s, err
	}
	for _, name := range services {
		c, err := h.ServiceCapability(name)
		if err != nil {
			return s, err
		}
		s.Services = append(s.Services, name)
		s.Parameters = append(s.Parameters, paramRows(name, c)...)
	}
	return s, nil
}

// paramRows lists the parameters callers may override, per phase.
func paramRows(capability string, c *plugin.Capability) []paramRow {
	phases := make([]string, 0, len(c.Phases))
	for name := range c.Phases {
		phases = append(phases, name)
	}
	sort.Strings(phases)

	var rows []paramRow
	for _, phase := range phases {
		for _, p := range c.Phases[phase].Params {
			if !p.UserAccessible() {
				continue
			}
			rows = append(rows, paramRow{
				Target:  capability + "." + phase,
				Name:    p.Name,
				Default: p.Default.String(),
				Helper:  p.Helper,
			})
		}
	}
	return rows
}

func renderPluginTable(cmd *cobra.Command, payload pluginsPayload) error {
	out := cmd.OutOrStdout()
	if len(payload.Plugins) == 0 {
		fmt.Fprintln(out, "No plugins loaded.")
		fmt.Fprintln(out, "\nDeclare plugins in the [Extension] section as plugin_path_<name> = <dir>.")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tVERSION\tREQUIRES\tSOURCE\tENCRYPT\tSERVICES")
	for _, p := range payload.Plugins {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name,
			valueOrFallback(p.Version, "-"),
			p.Requires,
			p.Source,
			valueOrFallback(strings.Join(p.Encrypt, ", "), "-"),
			valueOrFallback(strings.Join(p.Services, ", "), "-"),
		)
	}
	return writer.Flush()
}

func renderPluginCards(cmd *cobra.Command, payload pluginsPayload) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "host %s, policy %s\n", payload.Host, payload.Policy)

	for _, p := range payload.Plugins {
		rows := []components.Row{
			{Label: "requires", Value: p.Requires},
			{Label: "source", Value: p.Source},
			{Label: "encrypt", Value: strings.Join(p.Encrypt, ", ")},
			{Label: "services", Value: strings.Join(p.Services, ", ")},
		}
		for _, param := range p.Parameters {
			value := param.Default
			if param.Helper != "" {
				value += "  " + param.Helper
			}
			rows = append(rows, components.Row{Label: param.Target + " " + param.Name, Value: value})
		}

		card := components.NewCard(components.CardData{
			Title:    p.Name,
			Subtitle: p.Version,
			Status:   "ok",
			Rows:     rows,
		})
		fmt.Fprintln(out, card.View())
	}
	return nil
}
