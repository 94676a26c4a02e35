// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cloudconvert/internal/history"
	"github.com/pdiddy/cloudconvert/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversion and merge jobs",
	Long: `History lists the jobs recorded in the local history database, newest
first, as a table, YAML, or JSON.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded job as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of jobs to list")
	historyCmd.Flags().String("format", "table", "output format: table, yaml, or json")

	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	store, err := history.Open(cli.cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	jobs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case "table":
		return history.WriteTable(w, jobs)
	case "yaml":
		return history.WriteYAML(w, jobs)
	case "json":
		return history.WriteJSON(w, jobs)
	default:
		return fmt.Errorf("unknown format %q: want table, yaml, or json", format)
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cli.cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	job, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return history.WriteYAML(cmd.OutOrStdout(), []types.Job{*job})
}
