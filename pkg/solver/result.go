package solver

import (
	"github.com/ariera/interviews-scheduler/pkg/schedule"
)

// Status is the outcome of a single solve attempt.
type Status int

const (
	// StatusOptimal means the solver proved the returned schedule
	// minimizes the hierarchical objective.
	StatusOptimal Status = iota
	// StatusFeasible means a schedule satisfying every hard constraint
	// was found but optimality was not proven before the time limit.
	StatusFeasible
	// StatusInfeasible means no schedule satisfies every hard
	// constraint.
	StatusInfeasible
	// StatusTimeLimitReachedNoSolution means the solver exhausted its
	// time budget without finding any feasible schedule.
	StatusTimeLimitReachedNoSolution
	// StatusError means the solve failed for a reason unrelated to
	// feasibility (a ModelError, a verification failure, or a backend
	// error).
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusTimeLimitReachedNoSolution:
		return "TIME_LIMIT_REACHED_NO_SOLUTION"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Stats reports metadata about a solve attempt, independent of whether
// it succeeded.
type Stats struct {
	WallTimeSeconds float64
	ObjectiveValue  float64
}

// Result is the outcome of one solve(instance, opts) call: exactly one
// of Schedule or Err is meaningful, selected by Status.
type Result struct {
	Status   Status
	Schedule *schedule.Schedule
	Stats    Stats
	Err      error
}
