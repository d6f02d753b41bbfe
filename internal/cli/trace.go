package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fluxury/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal   string
	Broadcast string // optional - show a single broadcast
	Store     string // optional - filter commits to one store
}

// BroadcastTrace is a journaled broadcast with the commits it produced.
type BroadcastTrace struct {
	journal.Broadcast
	Commits []journal.Commit `json:"commits"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Journal    string           `json:"journal"`
	Broadcasts []BroadcastTrace `json:"broadcasts"`
	Direct     []journal.Commit `json:"direct_commits"` // SetState commits outside any broadcast
	Stats      TraceStats       `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Broadcasts int `json:"broadcasts"`
	Failed     int `json:"failed"`
	Pending    int `json:"pending"`
	Commits    int `json:"commits"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled broadcasts and commits",
		Long: `Show the broadcasts and commits recorded in a journal.

Each broadcast is listed in seq order with its status and the commits it
caused. Commits made through SetState, outside any broadcast, are listed
separately. The journal path defaults to $FLUXURY_JOURNAL.

Examples:
  fluxury trace --journal ./fluxury.db
  fluxury trace --journal ./fluxury.db --broadcast 0192e0c4-...
  fluxury trace --journal ./fluxury.db --store CountStore --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", rootOpts.Config.Journal, "path to SQLite journal")
	cmd.Flags().StringVar(&opts.Broadcast, "broadcast", "", "show only this broadcast")
	cmd.Flags().StringVar(&opts.Store, "store", "", "show only commits to this store")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := contextOf(cmd)
	formatter := NewOutputFormatter(opts.RootOptions, cmd)

	if opts.Journal == "" {
		return NewExitError(ExitCommandError, "no journal: pass --journal or set FLUXURY_JOURNAL")
	}
	// Open would create a missing database.
	if _, err := os.Stat(opts.Journal); err != nil {
		_ = formatter.Error(CodeNotFound, fmt.Sprintf("journal not found: %s", opts.Journal), nil)
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	j, err := journal.Open(opts.Journal, journal.WithLogger(slog.Default()))
	if err != nil {
		_ = formatter.Error(CodeJournal, "failed to open journal", err.Error())
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var broadcasts []journal.Broadcast
	if opts.Broadcast != "" {
		b, err := j.ReadBroadcast(ctx, opts.Broadcast)
		if errors.Is(err, sql.ErrNoRows) {
			_ = formatter.Error(CodeNotFound, fmt.Sprintf("broadcast not found: %s", opts.Broadcast), nil)
			return NewExitError(ExitCommandError, "broadcast not found")
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read broadcast", err)
		}
		broadcasts = []journal.Broadcast{b}
	} else {
		broadcasts, err = j.ReadBroadcasts(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read broadcasts", err)
		}
	}

	result := TraceResult{
		Journal:    opts.Journal,
		Broadcasts: make([]BroadcastTrace, 0, len(broadcasts)),
		Direct:     []journal.Commit{},
	}
	for _, b := range broadcasts {
		commits, err := j.ReadCommits(ctx, b.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read commits", err)
		}
		commits = filterCommits(commits, opts.Store)
		result.Broadcasts = append(result.Broadcasts, BroadcastTrace{Broadcast: b, Commits: commits})
		result.Stats.Commits += len(commits)
		switch b.Status {
		case journal.StatusError:
			result.Stats.Failed++
		case journal.StatusPending:
			result.Stats.Pending++
		}
	}
	result.Stats.Broadcasts = len(result.Broadcasts)

	if opts.Broadcast == "" {
		direct, err := j.ReadCommits(ctx, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read commits", err)
		}
		result.Direct = filterCommits(direct, opts.Store)
		result.Stats.Commits += len(result.Direct)
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func filterCommits(commits []journal.Commit, store string) []journal.Commit {
	if store == "" {
		return commits
	}
	out := []journal.Commit{}
	for _, c := range commits {
		if c.Store == store {
			out = append(out, c)
		}
	}
	return out
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: result})
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Journal: %s\n\n", result.Journal)

	fmt.Fprintln(w, "=== Broadcasts ===")
	if len(result.Broadcasts) == 0 {
		fmt.Fprintln(w, "  (no broadcasts)")
	}
	for _, b := range result.Broadcasts {
		fmt.Fprintf(w, "  [%d] %s %s (%s)\n", b.Seq, truncateID(b.ID), b.ActionType, b.Status)
		if verbose && b.Payload != "" && b.Payload != "null" {
			fmt.Fprintf(w, "       Payload: %s\n", b.Payload)
		}
		if b.Error != "" {
			fmt.Fprintf(w, "       Error: %s\n", b.Error)
		}
		for _, c := range b.Commits {
			formatCommit(w, c, verbose)
		}
	}

	if len(result.Direct) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Direct commits ===")
		for _, c := range result.Direct {
			formatCommit(w, c, verbose)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Broadcasts: %d\n", result.Stats.Broadcasts)
	fmt.Fprintf(w, "  Failed:     %d\n", result.Stats.Failed)
	fmt.Fprintf(w, "  Pending:    %d\n", result.Stats.Pending)
	fmt.Fprintf(w, "  Commits:    %d\n", result.Stats.Commits)

	return nil
}

func formatCommit(w io.Writer, c journal.Commit, verbose bool) {
	fmt.Fprintf(w, "       [%d] %s = %s\n", c.Seq, c.Store, c.State)
	if verbose {
		fmt.Fprintf(w, "            via %s, hash %s\n", c.Via, truncateID(c.StateHash))
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
