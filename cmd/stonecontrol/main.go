// Command stonecontrol converts cut-sheet PDFs into DXF drawings and PNG
// previews of the panels they describe.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/explosionLink/stone-control/internal/config"
	"github.com/explosionLink/stone-control/internal/logging"
)

var (
	cfgFile  string
	verbose  bool
	jsonLogs bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stonecontrol",
	Short: "Convert countertop cut sheets into CAD drawings",
	Long: `stonecontrol reads the cut-sheet PDFs sent by kitchen vendors, finds the
panel drawing on every page and writes one DXF file (outline and machining
holes on separate layers) plus a PNG preview per panel.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if jsonLogs {
			cfg.Log.Format = "json"
		}
		logger = logging.New(logging.Config{
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
			Output:  cmd.ErrOrStderr(),
			Service: "stonecontrol",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "log as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
