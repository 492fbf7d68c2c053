package cli

import (
	"fmt"
	"io"

	"github.com/ariel-frischer/ansible-bootstrap/internal/cli/shared"
	clierrors "github.com/ariel-frischer/ansible-bootstrap/internal/errors"
	"github.com/ariel-frischer/ansible-bootstrap/internal/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validStatuses = map[string]bool{
	history.StatusCompleted: true,
	history.StatusFailed:    true,
	history.StatusCancelled: true,
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous bootstrap and play runs",
		Long:  `List recorded runs newest first with their status, platform, duration and the step that stopped them.`,
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.GroupID = shared.GroupInspect
	cmd.Flags().IntP("limit", "n", 0, "Show only the N most recent entries")
	cmd.Flags().String("status", "", "Filter by status (completed, failed, cancelled)")
	cmd.Flags().Bool("clear", false, "Clear all history")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	statusFilter, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return clierrors.NewArgumentError(fmt.Sprintf("limit must be positive, got %d", limit))
	}
	if statusFilter != "" && !validStatuses[statusFilter] {
		return clierrors.NewArgumentErrorWithUsage(
			fmt.Sprintf("unknown status %q", statusFilter),
			"ansible-bootstrap history --status completed|failed|cancelled",
		)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if clearFlag {
		if err := history.ClearHistory(cfg.StateDir); err != nil {
			return clierrors.WrapWithMessage(err, clierrors.Runtime, fmt.Sprintf("clearing history: %v", err))
		}
		fmt.Fprintln(out, "History cleared.")
		return nil
	}

	histFile, err := history.LoadHistory(cfg.StateDir)
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime, fmt.Sprintf("loading history: %v", err))
	}

	entries := histFile.Recent(limit, statusFilter)
	if len(entries) == 0 {
		if statusFilter != "" {
			fmt.Fprintf(out, "No matching entries for status '%s'.\n", statusFilter)
		} else {
			fmt.Fprintln(out, "No history available.")
		}
		return nil
	}

	displayEntries(out, entries)
	return nil
}

// displayEntries writes one line per run, plus the error for runs that did not complete.
func displayEntries(out io.Writer, entries []history.HistoryEntry) {
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for _, entry := range entries {
		platform := entry.Platform
		if platform == "" {
			platform = "-"
		}
		fmt.Fprintf(out, "%s  %-9s  %-10s  %-7s  %s  %s\n",
			entry.StartedAt.Format("2006-01-02 15:04:05"),
			cyan(entry.Command),
			formatStatus(entry.Status),
			platform,
			entry.Duration,
			dim(entry.ID),
		)
		if entry.Status != history.StatusCompleted && entry.FailedStep != "" {
			fmt.Fprintf(out, "    %s: %s\n", entry.FailedStep, entry.Error)
		}
	}
}

// formatStatus colors a status by outcome.
func formatStatus(status string) string {
	switch status {
	case history.StatusCompleted:
		return color.GreenString(status)
	case history.StatusCancelled:
		return color.YellowString(status)
	default:
		return color.RedString(status)
	}
}
