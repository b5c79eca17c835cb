package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/history"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderHistoryTable(runs))
				fmt.Fprintf(out, "Succeeded: %d  Failed: %d  Running: %d\n",
					stats[history.StatusSucceeded], stats[history.StatusFailed], stats[history.StatusRunning])
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the details of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				printRunDetail(cmd.OutOrStdout(), run)
				return nil
			})
		},
	})
	return cmd
}

func (c *commandContext) withHistory(cmd *cobra.Command, fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Pipeline.RecordHistory {
		return errors.New("run history is disabled (set pipeline.record_history = true)")
	}
	store, err := history.OpenFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func renderHistoryTable(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.Duration().Round(time.Second).String()
		}
		result := run.FinalPath
		if run.Status == history.StatusFailed {
			result = fmt.Sprintf("%s: %s", run.FailedStage, run.ErrorMessage)
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(historyTimeLayout),
			string(run.Status),
			duration,
			run.Prompt,
			result,
		})
	}
	return renderTable([]column{
		{Header: "Run"},
		{Header: "Started"},
		{Header: "Status"},
		{Header: "Duration", Align: alignRight},
		{Header: "Prompt", MaxWidth: 40},
		{Header: "Result", MaxWidth: 60},
	}, rows)
}

func printRunDetail(out io.Writer, run history.Run) {
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Token:    %s\n", run.Token)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(historyTimeLayout))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Finished: %s (%s)\n", run.FinishedAt.Local().Format(historyTimeLayout), run.Duration().Round(time.Second))
	}
	fmt.Fprintf(out, "Prompt:   %s\n", run.Prompt)
	if run.Status == history.StatusFailed {
		fmt.Fprintf(out, "Failed:   %s stage (%s)\n", run.FailedStage, run.FailureKind)
		fmt.Fprintf(out, "Error:    %s\n", run.ErrorMessage)
	}
	var rows [][]string
	for _, entry := range []struct {
		label string
		path  string
	}{
		{"Script", run.ScriptPath},
		{"Narration", run.AudioPath},
		{"Silent video", run.VideoPath},
		{"Final video", run.FinalPath},
	} {
		if entry.path != "" {
			rows = append(rows, []string{entry.label, entry.path})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]column{{Header: "Artifact"}, {Header: "Path"}}, rows))
	}
	if run.Preview != "" {
		fmt.Fprintln(out, "Preview:")
		fmt.Fprintln(out, run.Preview)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
