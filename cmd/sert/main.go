// Command sert is the native half of the Sert editor.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sert-editor/sert/pkg/config"
	"github.com/sert-editor/sert/pkg/logging"
)

// Build-time constants, set with -ldflags "-X main.version=... -X main.embedded=true
// -X main.embeddedPath=...".
var (
	version      = "dev"
	embedded     = "false"
	embeddedPath = ""
)

var (
	cfgFile   string
	verbose   bool
	noBrowser bool

	cfg    *config.Config
	logger *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sert [file]",
	Short: "Sert - a text editor with Python extensions",
	Long: `Sert serves the editor front end, bridges it to native services
(files, clipboard, menus, drag and drop) and hosts the Python interpreter
used by extensions.`,
	Version:           version,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.sert/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open an editor window on start-up")

	rootCmd.SetVersionTemplate("sert {{.Version}}\n")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		if created, err := config.EnsureDefaultFile(config.GetConfigPath()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create default config: %v\n", err)
		} else if created {
			fmt.Fprintf(os.Stderr, "Created default configuration at %s\n", config.GetConfigPath())
		}
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger = logging.New(verbose || cfg.Log.Debug)
	if len(cfg.Log.Categories) == 0 {
		logger.EnableAllCategories()
	} else {
		for _, cat := range cfg.Log.Categories {
			logger.EnableCategory(logging.LogCategory(cat))
		}
	}
	return nil
}

func buildEmbedded() bool {
	b, err := strconv.ParseBool(embedded)
	return err == nil && b
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// Version needs neither config nor logger.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sert %s\n", version)
		if buildEmbedded() {
			fmt.Fprintf(cmd.OutOrStdout(), "embedded python: %s\n", embeddedPath)
		}
	},
}
