// Package solver drives the CP-SAT backend against a built model,
// supporting both a single-solution and a diversified multi-solution
// search, with explicit cancellation and time-budget propagation
// instead of hidden global state.
package solver

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/ariera/interviews-scheduler/pkg/diversity"
	"github.com/ariera/interviews-scheduler/pkg/instance"
	"github.com/ariera/interviews-scheduler/pkg/model"
	"github.com/ariera/interviews-scheduler/pkg/schedule"
	"github.com/ariera/interviews-scheduler/pkg/solver/backend"
)

// errTimeExhausted signals that ctx's deadline has already passed (or
// left no usable budget) before a solve was attempted. It never
// reaches a caller directly: Solve and SolveMulti translate it into
// StatusTimeLimitReachedNoSolution rather than StatusError, since no
// model was ever handed to CP-SAT.
var errTimeExhausted = errors.New("no time remaining in solve budget")

// Options are the solve-time knobs.
type Options struct {
	// MaxTimeSeconds bounds a single solve call. Zero means the
	// default of 60 seconds.
	MaxTimeSeconds float64
	// Workers bounds the CP-SAT worker thread count. Zero means "use
	// every available core".
	Workers int
	// RandomSeed, when set, makes solve_multi's sequence deterministic.
	RandomSeed *int64
}

const defaultMaxTimeSeconds = 60.0

func (o Options) withDefaults() Options {
	if o.MaxTimeSeconds <= 0 {
		o.MaxTimeSeconds = defaultMaxTimeSeconds
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// ProgressEvent is one notification emitted during a solve, intended
// for an external progress sink (e.g. a CLI spinner); the core never
// prints anything itself.
type ProgressEvent struct {
	Stage   string
	Message string
}

// ProgressSink receives ProgressEvents as a solve or solve_multi call
// progresses. A nil sink is valid and simply discards events.
type ProgressSink func(ProgressEvent)

func emit(sink ProgressSink, stage, message string) {
	if sink != nil {
		sink(ProgressEvent{Stage: stage, Message: message})
	}
}

// remainingSeconds returns the smaller of opts.MaxTimeSeconds and the
// time left until ctx's deadline, or opts.MaxTimeSeconds if ctx has
// none.
func remainingSeconds(ctx context.Context, opts Options) float64 {
	budget := opts.MaxTimeSeconds
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl).Seconds()
		if left < budget {
			budget = left
		}
	}
	if budget < 0 {
		budget = 0
	}
	return budget
}

// buildAndSolve builds a fresh model from inst, optionally applies
// diversity cuts from ctl, and runs one CP-SAT solve within the time
// budget remaining on ctx.
func buildAndSolve(ctx context.Context, inst *instance.Instance, opts Options, ctl *diversity.Controller) (*model.Model, *backend.Response, error) {
	b := backend.NewBuilder()
	m, err := model.Build(b, inst)
	if err != nil {
		return nil, nil, err
	}
	if ctl != nil && ctl.Len() > 0 {
		if err := ctl.ApplyCuts(b, m); err != nil {
			return nil, nil, err
		}
	}

	remaining := remainingSeconds(ctx, opts)
	if remaining <= 0 {
		// A zero budget here means the deadline already passed, not
		// "no limit" — backend.Solve treats <= 0 as unlimited, so it
		// must never see this value.
		return nil, nil, errTimeExhausted
	}

	solveOpts := backend.SolveOptions{
		MaxTimeSeconds: remaining,
		Workers:        int32(opts.Workers),
	}
	if opts.RandomSeed != nil {
		seed := int32(*opts.RandomSeed)
		solveOpts.RandomSeed = &seed
	}

	resp, err := b.Solve(solveOpts)
	if err != nil {
		return nil, nil, err
	}
	return m, resp, nil
}

// decodeResult turns a raw backend Response into a solver Result,
// extracting and verifying the schedule when a solution was found.
func decodeResult(inst *instance.Instance, m *model.Model, resp *backend.Response) *Result {
	switch resp.Status() {
	case backend.StatusOptimal, backend.StatusFeasible:
		statusStr := "FEASIBLE"
		resultStatus := StatusFeasible
		if resp.Status() == backend.StatusOptimal {
			statusStr = "OPTIMAL"
			resultStatus = StatusOptimal
		}
		sched, err := schedule.Extract(inst, m, resp, statusStr)
		if err != nil {
			return &Result{Status: StatusError, Err: err}
		}
		if err := schedule.Verify(inst, sched); err != nil {
			return &Result{Status: StatusError, Err: err}
		}
		return &Result{
			Status:   resultStatus,
			Schedule: sched,
			Stats: Stats{
				WallTimeSeconds: resp.WallTimeSeconds(),
				ObjectiveValue:  resp.ObjectiveValue(),
			},
		}
	case backend.StatusInfeasible:
		return &Result{Status: StatusInfeasible, Stats: Stats{WallTimeSeconds: resp.WallTimeSeconds()}}
	case backend.StatusModelInvalid:
		return &Result{Status: StatusError, Err: errors.New("CP-SAT reported the model as invalid"), Stats: Stats{WallTimeSeconds: resp.WallTimeSeconds()}}
	default:
		return &Result{Status: StatusTimeLimitReachedNoSolution, Stats: Stats{WallTimeSeconds: resp.WallTimeSeconds()}}
	}
}

// Solve builds a CP-SAT model from inst and returns exactly one
// result: Optimal, Feasible, Infeasible, TimeLimitReachedNoSolution,
// or Error.
func Solve(ctx context.Context, inst *instance.Instance, opts Options, sink ProgressSink) *Result {
	opts = opts.withDefaults()
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Result{Status: StatusTimeLimitReachedNoSolution, Err: err}
		}
		return &Result{Status: StatusError, Err: err}
	}
	emit(sink, "build", "building CP-SAT model")
	m, resp, err := buildAndSolve(ctx, inst, opts, nil)
	if err != nil {
		if errors.Is(err, errTimeExhausted) {
			return &Result{Status: StatusTimeLimitReachedNoSolution}
		}
		return &Result{Status: StatusError, Err: err}
	}
	emit(sink, "solve", "solver returned: "+resp.Status().String())
	return decodeResult(inst, m, resp)
}

// SolveMulti runs the diversity loop: solve once, then repeatedly add a
// no-good cut against every solution found so far and re-solve, until k
// solutions are produced, a re-solve is infeasible,
// or the context's deadline expires. Results are returned in the order
// produced; the caller should expect non-increasing quality only when
// the first-objective optimum remains achievable at each step.
func SolveMulti(ctx context.Context, inst *instance.Instance, opts Options, k int, sink ProgressSink) []*Result {
	opts = opts.withDefaults()
	if k < 1 {
		return nil
	}

	ctl := diversity.NewController()
	var results []*Result

	for i := 0; i < k; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		emit(sink, "solve_multi", "solving iteration")
		m, resp, err := buildAndSolve(ctx, inst, opts, ctl)
		if err != nil {
			if errors.Is(err, errTimeExhausted) {
				results = append(results, &Result{Status: StatusTimeLimitReachedNoSolution})
			} else {
				results = append(results, &Result{Status: StatusError, Err: err})
			}
			break
		}

		result := decodeResult(inst, m, resp)
		results = append(results, result)

		if result.Status != StatusOptimal && result.Status != StatusFeasible {
			break
		}
		ctl.Record(diversity.SnapshotFrom(m, resp))
	}

	return results
}
