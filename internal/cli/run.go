package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/fluxury/internal/flux"
	"github.com/roach88/fluxury/internal/ir"
	"github.com/roach88/fluxury/internal/journal"
	"github.com/roach88/fluxury/internal/observe"
	"github.com/roach88/fluxury/internal/scenario"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal   string
	Debug     bool
	ShowTrace bool
}

// RunResult is the output of a single scenario run.
type RunResult struct {
	Scenario      string                `json:"scenario"`
	Pass          bool                  `json:"pass"`
	Errors        []string              `json:"errors,omitempty"`
	State         map[string]any        `json:"state"`
	Notifications map[string]int        `json:"notifications"`
	Trace         []scenario.TraceEvent `json:"trace,omitempty"`
	Journal       string                `json:"journal,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario against a fresh Flux",
		Long: `Run a YAML or CUE scenario against a fresh Flux.

Every broadcast and commit can be recorded to a SQLite journal for later
inspection with 'fluxury trace'. The journal path defaults to
$FLUXURY_JOURNAL.

Example:
  fluxury run ./scenarios/counter.yaml
  fluxury run --journal ./fluxury.db --debug ./scenarios/counter.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", rootOpts.Config.Journal, "path to SQLite journal (optional)")
	cmd.Flags().BoolVar(&opts.Debug, "debug", rootOpts.Config.Debug, "warn when committed state is mutated in place")
	cmd.Flags().BoolVar(&opts.ShowTrace, "trace", false, "include the full trace in the output")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd)

	s, err := scenario.Parse(path)
	if err != nil {
		_ = formatter.Error(CodeLoadFailed, "failed to load scenario", err.Error())
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if errs := scenario.Validate(s); len(errs) > 0 {
		_ = formatter.Error(CodeInvalidScenario, "invalid scenario", validationMessages(errs))
		return NewExitError(ExitFailure, fmt.Sprintf("invalid scenario: %d error(s)", len(errs)))
	}

	runOpts := []scenario.RunOption{
		scenario.WithLogger(slog.Default()),
		scenario.WithDebug(opts.Debug),
	}

	// Broadcast and commit events go to the log under --verbose.
	var observers []observe.Observer
	if opts.Verbose {
		observers = append(observers, observe.NewSlogObserver(slog.Default()))
	}

	var j *journal.Journal
	if opts.Journal != "" {
		formatter.VerboseLog("opening journal %s", opts.Journal)
		j, err = journal.Open(opts.Journal, journal.WithLogger(slog.Default()))
		if err != nil {
			_ = formatter.Error(CodeJournal, "failed to open journal", err.Error())
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()
		observers = append(observers, j)
		runOpts = append(runOpts, scenario.WithBroadcastIDs(flux.UUIDv7Generator{}))
	}
	if len(observers) > 0 {
		runOpts = append(runOpts, scenario.WithObserver(observe.NewMultiObserver(observers...)))
	}

	formatter.VerboseLog("running scenario %s (%d steps)", s.Name, len(s.Steps))
	result, err := scenario.Run(contextOf(cmd), s, runOpts...)
	if err != nil {
		_ = formatter.Error(CodeGeneric, "scenario run aborted", err.Error())
		return WrapExitError(ExitCommandError, "scenario run aborted", err)
	}

	if j != nil {
		if err := j.Err(); err != nil {
			_ = formatter.Error(CodeJournal, "journal write failed", err.Error())
			return WrapExitError(ExitCommandError, "journal write failed", err)
		}
	}

	out := RunResult{
		Scenario:      s.Name,
		Pass:          result.Pass,
		Errors:        result.Errors,
		State:         result.State,
		Notifications: result.Notifications,
		Journal:       opts.Journal,
	}
	if opts.ShowTrace {
		out.Trace = result.Trace
	}

	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		outputRunText(cmd, out)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", s.Name))
	}
	return nil
}

func outputRunText(cmd *cobra.Command, r RunResult) {
	w := cmd.OutOrStdout()
	if r.Pass {
		fmt.Fprintf(w, "✓ %s\n", r.Scenario)
	} else {
		fmt.Fprintf(w, "✗ %s\n", r.Scenario)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}

	fmt.Fprintln(w, "\nState:")
	for _, name := range ir.SortedKeys(r.State) {
		fmt.Fprintf(w, "  %s = %s (%d notifications)\n", name, renderValue(r.State[name]), r.Notifications[name])
	}

	if len(r.Trace) > 0 {
		fmt.Fprintln(w, "\nTrace:")
		for _, ev := range r.Trace {
			fmt.Fprintf(w, "  %s\n", formatTraceEvent(ev))
		}
	}

	if r.Journal != "" {
		fmt.Fprintf(w, "\nJournal: %s\n", r.Journal)
	}
}

func formatTraceEvent(ev scenario.TraceEvent) string {
	switch ev.Type {
	case scenario.TraceBroadcast:
		return fmt.Sprintf("[%d] broadcast %s %s", ev.Seq, ev.BroadcastID, ev.Action)
	case scenario.TraceCommit:
		return fmt.Sprintf("[%d] commit %s = %s", ev.Seq, ev.Store, renderValue(ev.State))
	case scenario.TraceNotify:
		return fmt.Sprintf("    notify %s (%d listeners)", ev.Store, ev.Listeners)
	case scenario.TraceError:
		return fmt.Sprintf("    error %s %s: %s", ev.BroadcastID, ev.Action, ev.Error)
	case scenario.TraceDispose:
		return fmt.Sprintf("    dispose %s", ev.Store)
	default:
		return ev.Type
	}
}

// renderValue renders v as canonical JSON, falling back to %v.
func renderValue(v any) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func validationMessages(errs []scenario.ValidationError) []string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return msgs
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
