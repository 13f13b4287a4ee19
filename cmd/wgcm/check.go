package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/validation"
)

type checkOptions struct {
	output string
}

type checkRow struct {
	Subject string `yaml:"subject"`
	Kind    string `yaml:"kind"`
	Target  string `yaml:"target"`
	Passed  bool   `yaml:"passed"`
	Message string `yaml:"message"`
}

func newCheckCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check devices and the tools and files plugins depend on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or yaml")

	return cmd
}

func runCheck(cmd *cobra.Command, rootFlags *rootFlags, opts *checkOptions) error {
	if err := validateOutput(opts.output); err != nil {
		return newCommandError("check configuration", "parsing flags", err, "Use --output table or --output yaml.")
	}

	app, err := newAppContext(cmd, rootFlags)
	if err != nil {
		return err
	}

	checks, err := validation.Plan(app.Config)
	if err != nil {
		return newCommandError("check configuration", "reading [Extension]", err, "Fix the [Extension] section.")
	}

	results, runErr := validation.Run(cmd.Context(), app.Config, checks)

	rows := make([]checkRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, checkRow{
			Subject: r.Check.Subject,
			Kind:    string(r.Check.Kind),
			Target:  r.Check.Target,
			Passed:  r.Passed,
			Message: r.Message,
		})
	}

	if opts.output == outputYAML {
		if err := writeYAML(cmd.OutOrStdout(), rows); err != nil {
			return err
		}
	} else if err := renderCheckTable(cmd, rows); err != nil {
		return err
	}

	if runErr != nil {
		return newCommandError("check configuration", app.Config.Path(), runErr, "Fix the failing entries above.")
	}
	return nil
}

func renderCheckTable(cmd *cobra.Command, rows []checkRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to check.")
		return nil
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "STATUS\tCHECK\tKIND\tDETAIL")
	for _, row := range rows {
		status := "ok"
		if !row.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", status, row.Subject, row.Kind, row.Message)
	}
	return writer.Flush()
}
