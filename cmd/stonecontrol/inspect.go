package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	stonecontrol "github.com/explosionLink/stone-control"
)

var (
	inspectClient string
	inspectText   bool
	inspectJSON   bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pdf>",
	Short: "Show what the pipeline detects on each page",
	Long: `Inspect runs text and geometry detection over every page and prints the
dimensions, edge and face counts, chosen outline and hole count, or the reason
a page was skipped. No files are written.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectClient, "client", "", "client code (default from config)")
	inspectCmd.Flags().BoolVar(&inspectText, "text", false, "print the extracted text of every page")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the reports as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg.Preview.Enabled = false
	proc, err := stonecontrol.New(cfg, logger)
	if err != nil {
		return err
	}
	defer proc.Close()

	reports, err := proc.Inspect(ctx, args[0], inspectClient)
	if err != nil {
		return err
	}
	if !inspectText {
		for i := range reports {
			reports[i].Text = ""
		}
	}

	if inspectJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tSIZE (mm)\tEDGES\tSEGMENTS\tFACES\tOUTLINE\tHOLES\tRESULT")
	for _, r := range reports {
		size, outline, result := "-", "-", "panel"
		if r.Metadata.Valid() {
			size = fmt.Sprintf("%gx%gx%g", r.Metadata.WidthMM, r.Metadata.HeightMM, r.Metadata.ThicknessMM)
		}
		if r.Outer != nil {
			outline = fmt.Sprintf("%.1f,%.1f %.1fx%.1f", r.Outer.MinX, r.Outer.MinY, r.Outer.Width(), r.Outer.Height())
		}
		if r.Skipped != "" {
			result = "skipped: " + r.Skipped
		} else if r.Metadata.MirrorRequired {
			result = "panel + mirrored"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\t%d\t%s\n",
			r.Page, size, r.Edges, r.Segments, r.Faces, outline, r.Holes, result)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if inspectText {
		for _, r := range reports {
			fmt.Fprintf(out, "\n=== Page %d ===\n%s\n", r.Page, strings.TrimSpace(r.Text))
		}
	}
	return nil
}
