package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ffglitch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(out, "Run history is disabled (set history.enabled = true)")
				return nil
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, historyRow(run))
			}
			fmt.Fprintln(out, renderTable(historyColumns, rows))
			for _, run := range runs {
				if run.TempPath != "" {
					fmt.Fprintf(out, "%s kept %s\n", shortID(run.ID), run.TempPath)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

var historyColumns = []column{
	textColumn("Started"),
	pathColumn("Input"),
	textColumn("Feature"),
	textColumn("Transform"),
	countColumn("Frames"),
	textColumn("Sidecar"),
	textColumn("Status"),
}

func historyRow(run history.Run) []string {
	sidecar := "exported"
	if run.CacheHit {
		sidecar = "reused"
	}
	status := string(run.Status)
	if run.Status == history.StatusFailed && run.Error != "" {
		status = "failed: " + truncate(run.Error, 48)
	}
	return []string{
		humanize.Time(run.StartedAt),
		run.InputPath,
		run.Feature,
		run.Transform,
		strconv.Itoa(run.Transformed) + "/" + strconv.Itoa(run.Frames),
		sidecar,
		status,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
