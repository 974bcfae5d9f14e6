package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show interpreter discovery and provenance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		py, env := startPython(cmd.Context(), cfg, logger)
		if py != nil {
			defer py.Close()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Interpreter:  %s\n", orNone(env.Location.Path))
		fmt.Fprintf(out, "Found via:    %s\n", orNone(env.Location.Strategy))
		fmt.Fprintf(out, "Executable:   %s\n", orNone(env.Executable))
		fmt.Fprintf(out, "Version:      %s\n", orNone(strings.SplitN(env.Version, "\n", 2)[0]))
		fmt.Fprintf(out, "Provenance:   %s\n", env.Report.Provenance)
		if len(env.Report.Matched) > 0 {
			fmt.Fprintf(out, "Signals:      %s\n", strings.Join(env.Report.Matched, ", "))
		}
		if env.Err != nil {
			fmt.Fprintf(out, "Error:        %v\n", env.Err)
		}
		fmt.Fprintf(out, "Config:       %s\n", orNone(configUsed()))
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
