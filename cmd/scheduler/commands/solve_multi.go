package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariera/interviews-scheduler/pkg/solver"
)

// SolveMultiCmd creates the solve-multi command: run the diversity loop,
// returning up to k distinct schedules.
func SolveMultiCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve-multi <scheduling-config.yaml>",
		Short: "Solve a scheduling config for up to k diverse schedules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			k, _ := cmd.Flags().GetInt("count")
			opts, record := solveOptionsFromFlags(cmd, app)

			inst, err := loadInstance(path)
			if err != nil {
				return err
			}

			ctx, cancel := contextWithMaxTime(app.Ctx, opts.MaxTimeSeconds*float64(k))
			defer cancel()

			app.Logger.Info("solving multi", zap.String("path", path), zap.Int("count", k))
			results := solver.SolveMulti(ctx, inst, opts, k, progressLogger(app.Logger))

			if len(results) == 0 {
				return &CLIError{Code: ExitInternalFailure, Err: fmt.Errorf("solve_multi returned no results")}
			}

			var hash string
			if record {
				var err error
				hash, err = configHash(path)
				if err != nil {
					app.Logger.Warn("failed to hash config for run history", zap.Error(err))
				}
			}

			for i, result := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "=== solution %d of %d ===\n", i+1, len(results))
				if record {
					recordRun(app, "solve_multi", hash, inst, result)
				}
				if err := reportResult(cmd, result); err != nil {
					if i == len(results)-1 {
						return err
					}
					// An earlier iteration going infeasible/timed out just
					// ends the diversity loop early; only the final
					// result's status drives the exit code.
				}
			}

			return nil
		},
	}

	addSolverFlags(cmd)
	cmd.Flags().Int("count", 3, "Number of diverse solutions to request")
	return cmd
}
