package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariera/interviews-scheduler/pkg/history"
	"github.com/ariera/interviews-scheduler/pkg/instance"
	"github.com/ariera/interviews-scheduler/pkg/solver"
)

// SolveCmd creates the solve command: build an Instance and run exactly
// one CP-SAT solve against it.
func SolveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve <scheduling-config.yaml>",
		Short: "Solve a scheduling config for a single best schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			opts, record := solveOptionsFromFlags(cmd, app)

			inst, err := loadInstance(path)
			if err != nil {
				return err
			}

			ctx, cancel := contextWithMaxTime(app.Ctx, opts.MaxTimeSeconds)
			defer cancel()

			app.Logger.Info("solving", zap.String("path", path), zap.Float64("max_time_seconds", opts.MaxTimeSeconds))
			result := solver.Solve(ctx, inst, opts, progressLogger(app.Logger))

			if record {
				hash, err := configHash(path)
				if err != nil {
					app.Logger.Warn("failed to hash config for run history", zap.Error(err))
				}
				recordRun(app, "solve", hash, inst, result)
			}

			return reportResult(cmd, result)
		},
	}

	addSolverFlags(cmd)
	return cmd
}

// addSolverFlags registers the flags every solve-family command shares.
func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("max-time", 0, "Solver time budget in seconds (0 = operating config default)")
	cmd.Flags().Int("workers", 0, "CP-SAT worker thread count (0 = every available core)")
	cmd.Flags().Int64("seed", 0, "Random seed for deterministic solve_multi ordering (0 = unset)")
	cmd.Flags().Bool("record", false, "Persist this run to the history store (requires historyDSN)")
}

func solveOptionsFromFlags(cmd *cobra.Command, app *AppContext) (solver.Options, bool) {
	maxTime, _ := cmd.Flags().GetFloat64("max-time")
	if maxTime <= 0 {
		maxTime = app.Cfg.DefaultMaxTimeSeconds
	}
	workers, _ := cmd.Flags().GetInt("workers")
	seed, _ := cmd.Flags().GetInt64("seed")
	record, _ := cmd.Flags().GetBool("record")

	opts := solver.Options{MaxTimeSeconds: maxTime, Workers: workers}
	if seed != 0 {
		opts.RandomSeed = &seed
	}
	return opts, record && app.History != nil
}

// contextWithMaxTime derives a deadline from app.Ctx so solver.Solve's
// own remainingSeconds bookkeeping and the CLI's process lifetime agree.
func contextWithMaxTime(parent context.Context, maxTimeSeconds float64) (context.Context, context.CancelFunc) {
	if maxTimeSeconds <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, time.Duration(maxTimeSeconds*float64(time.Second)))
}

func progressLogger(logger *zap.Logger) solver.ProgressSink {
	return func(ev solver.ProgressEvent) {
		logger.Debug("solver progress", zap.String("stage", ev.Stage), zap.String("message", ev.Message))
	}
}

// reportResult prints result to stdout and returns an error carrying the
// exit code that result's status maps to.
func reportResult(cmd *cobra.Command, result *solver.Result) error {
	switch result.Status {
	case solver.StatusOptimal, solver.StatusFeasible:
		printSchedule(cmd, result)
		return nil
	case solver.StatusInfeasible:
		fmt.Fprintln(cmd.OutOrStdout(), "INFEASIBLE: no schedule satisfies every hard constraint")
		return &CLIError{Code: ExitInfeasible, Err: fmt.Errorf("infeasible")}
	case solver.StatusTimeLimitReachedNoSolution:
		fmt.Fprintf(cmd.OutOrStdout(), "TIME_LIMIT_REACHED_NO_SOLUTION after %.1fs\n", result.Stats.WallTimeSeconds)
		return &CLIError{Code: ExitTimeLimitNoSolution, Err: fmt.Errorf("time limit reached without a solution")}
	default:
		return &CLIError{Code: ExitInternalFailure, Err: fmt.Errorf("solve failed: %w", result.Err)}
	}
}

func printSchedule(cmd *cobra.Command, result *solver.Result) {
	out := cmd.OutOrStdout()
	sched := result.Schedule
	fmt.Fprintf(out, "%s in %.2fs, objective %.0f\n", result.Status.String(), result.Stats.WallTimeSeconds, result.Stats.ObjectiveValue)
	fmt.Fprintf(out, "order breaks: %d, day ends %s\n\n", sched.Summary.OrderBreaks, sched.Summary.DayEndTime)

	for c, sessions := range sched.Candidates {
		fmt.Fprintf(out, "candidate %d:\n", c)
		for _, s := range sessions {
			fmt.Fprintf(out, "  %-12s %s-%s\n", s.Panel, s.StartTime, s.EndTime)
		}
	}
}

func recordRun(app *AppContext, mode, configHash string, inst *instance.Instance, result *solver.Result) {
	run := history.Run{
		Mode:            mode,
		Status:          result.Status.String(),
		ConfigHash:      configHash,
		NumCandidates:   inst.NumCandidates,
		NumPanels:       inst.NumPanels(),
		WallTimeSeconds: result.Stats.WallTimeSeconds,
	}
	if result.Schedule != nil {
		breaks := result.Schedule.Summary.OrderBreaks
		run.OrderBreaks = &breaks
		run.DayEndTime = result.Schedule.Summary.DayEndTime
	}
	if result.Err != nil {
		run.ErrorMessage = result.Err.Error()
	}

	id, err := app.History.Record(app.Ctx, run)
	if err != nil {
		app.Logger.Warn("failed to record run history", zap.Error(err))
		return
	}
	app.Logger.Info("recorded run", zap.String("run_id", id.String()))
}
