package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"leadboard/models"
	"leadboard/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print lead counts by priority from the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := services.NewLeadsClient(cfg.BackendURL, cfg.BackendTimeout)
		return printStats(cmd.Context(), client, cmd.OutOrStdout())
	},
}

func printStats(ctx context.Context, api services.LeadsAPI, w io.Writer) error {
	leads, err := api.ListLeads(ctx)
	if err != nil {
		return eris.Wrap(err, "stats")
	}

	stats := models.ComputeStats(leads)
	fmt.Fprintf(w, "Total leads:     %d\n", stats.Total)
	fmt.Fprintf(w, "High priority:   %d\n", stats.High)
	fmt.Fprintf(w, "Medium priority: %d\n", stats.Medium)
	fmt.Fprintf(w, "Low priority:    %d\n", stats.Low)
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
