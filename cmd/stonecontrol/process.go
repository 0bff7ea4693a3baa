package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	stonecontrol "github.com/explosionLink/stone-control"
	"github.com/explosionLink/stone-control/internal/store"
)

var (
	processOrder     string
	processClient    string
	processOutput    string
	processWorkers   int
	processNoPreview bool
	processJSON      bool
	processDB        string
)

var processCmd = &cobra.Command{
	Use:   "process <pdf>",
	Short: "Extract the panels of a cut-sheet PDF",
	Long: `Process finds the panel drawing on every page of the PDF and writes
{order}_{page}.dxf and .png files to the output directory. Pages marked for an
under-mount sink also get a mirrored machining template.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processOrder, "order", "o", "", "order code used to name the output files (required)")
	processCmd.Flags().StringVar(&processClient, "client", "", "client code (default from config)")
	processCmd.Flags().StringVar(&processOutput, "out", "", "output directory (default from config)")
	processCmd.Flags().IntVarP(&processWorkers, "workers", "w", 0, "pages processed in parallel (default from config)")
	processCmd.Flags().BoolVar(&processNoPreview, "no-preview", false, "skip PNG previews")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "print the panels as JSON")
	processCmd.Flags().StringVar(&processDB, "db", "", "save the results to this SQLite database (default from config)")
	processCmd.MarkFlagRequired("order")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	orderCode := strings.TrimSpace(processOrder)

	if processOutput != "" {
		cfg.OutputDir = processOutput
	}
	if processWorkers > 0 {
		cfg.Parser.Workers = processWorkers
	}
	if processNoPreview {
		cfg.Preview.Enabled = false
	}
	if processDB != "" {
		cfg.Store.Path = processDB
	}

	proc, err := stonecontrol.New(cfg, logger)
	if err != nil {
		return err
	}
	defer proc.Close()

	panels, err := proc.Process(ctx, args[0], orderCode, processClient)
	if err != nil {
		return err
	}

	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		client := processClient
		if client == "" {
			client = cfg.Parser.DefaultClient
		}
		order, err := st.SaveOrder(ctx, orderCode, client, panels)
		if err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		logger.Info().Str("order_id", order.ID.String()).Str("db", cfg.Store.Path).Msg("order saved")
	}

	if processJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(panels)
	}
	return printPanels(cmd, panels)
}

func printPanels(cmd *cobra.Command, panels []stonecontrol.Panel) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PANEL\tSIZE (mm)\tHOLES\tDXF\tPREVIEW")
	for _, p := range panels {
		fmt.Fprintf(w, "%s\t%gx%gx%g\t%d\t%s\t%s\n",
			p.Label, p.WidthMM, p.HeightMM, p.ThicknessMM, len(p.Holes), p.DXFPath, p.PreviewPath)
	}
	return w.Flush()
}
