package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/explosionLink/stone-control/internal/store"
)

var (
	ordersDB   string
	ordersJSON bool
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Browse orders saved by process --db",
}

var ordersShowCmd = &cobra.Command{
	Use:   "show <order>",
	Short: "List the panels saved for an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		order, err := st.GetOrder(cmd.Context(), args[0])
		if err != nil {
			return orderErr(args[0], err)
		}
		panels, err := st.PanelsByOrder(cmd.Context(), args[0])
		if err != nil {
			return orderErr(args[0], err)
		}

		if ordersJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(panels)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Order %s (%s), processed %s\n\n",
			order.Code, order.Client, order.CreatedAt.Local().Format("2006-01-02 15:04"))
		return printPanels(cmd, panels)
	},
}

var ordersDeleteCmd = &cobra.Command{
	Use:   "delete <order>",
	Short: "Remove an order with its panels and holes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteOrder(cmd.Context(), args[0]); err != nil {
			return orderErr(args[0], err)
		}
		logger.Info().Str("order", args[0]).Msg("order deleted")
		return nil
	},
}

func init() {
	ordersCmd.PersistentFlags().StringVar(&ordersDB, "db", "", "SQLite database (default from config)")
	ordersShowCmd.Flags().BoolVar(&ordersJSON, "json", false, "print the panels as JSON")
	ordersCmd.AddCommand(ordersShowCmd, ordersDeleteCmd)
	rootCmd.AddCommand(ordersCmd)
}

func openStore() (*store.Store, error) {
	path := ordersDB
	if path == "" {
		path = cfg.Store.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no database configured (use --db or store.path)")
	}
	return store.Open(path)
}

func orderErr(code string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("order %s not found", code)
	}
	return err
}
