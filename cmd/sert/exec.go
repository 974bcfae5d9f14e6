package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var execFile string

var execCmd = &cobra.Command{
	Use:   "exec [code]",
	Short: "Run Python code (or a file with --file) in the extension interpreter",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if execFile == "" && len(args) == 0 {
			return fmt.Errorf("nothing to run: pass code or --file")
		}

		py, env := startPython(cmd.Context(), cfg, logger)
		if py == nil {
			return fmt.Errorf("python interpreter is not available: %v", env.Err)
		}
		defer py.Close()

		var out string
		var err error
		if execFile != "" {
			out, err = py.RunFile(cmd.Context(), execFile)
		} else {
			out, err = py.Exec(cmd.Context(), strings.Join(args, " "))
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
		return nil
	},
}

func init() {
	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "run this Python file instead of inline code")
}
