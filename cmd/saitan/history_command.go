package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"saitan/internal/archive"
	"saitan/internal/history"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent archival runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "History is disabled (history.enabled = false)")
				return nil
			}

			path := cfg.HistoryPath()
			if path == "" {
				fmt.Fprintln(out, "History is unavailable: no state directory (set HOME or paths.state_dir)")
				return nil
			}
			store, err := history.Open(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func renderHistory(entries []history.Entry) string {
	headers := []string{"Started", "Run", "URL", "Action", "Status", "Result", "Duration"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}

	var rows [][]string
	for _, entry := range entries {
		started := entry.Started.Local().Format(historyTimeLayout)
		run := shortID(entry.ID)
		if len(entry.Outcomes) == 0 {
			rows = append(rows, []string{started, run, entry.URL, "-", "-", "", ""})
			continue
		}
		for i, outcome := range entry.Outcomes {
			row := []string{"", "", ""}
			if i == 0 {
				row = []string{started, run, entry.URL}
			}
			row = append(row,
				archive.Action(outcome.Action).Label(),
				statusLabel(outcome.Status),
				outcomeDetail(outcome),
				formatDuration(outcome.Duration),
			)
			rows = append(rows, row)
		}
	}
	return renderTable(headers, rows, aligns)
}

func outcomeDetail(outcome history.Outcome) string {
	switch archive.Status(outcome.Status) {
	case archive.StatusOK:
		return outcome.Value
	case archive.StatusSkipped:
		return archive.SkippedMarker
	}
	if outcome.Kind == "" {
		return outcome.Error
	}
	return fmt.Sprintf("[%s] %s", outcome.Kind, outcome.Error)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(10 * time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
