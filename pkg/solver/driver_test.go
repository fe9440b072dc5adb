package solver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariera/interviews-scheduler/pkg/instance"
	"github.com/ariera/interviews-scheduler/pkg/schedconfig"
	"github.com/ariera/interviews-scheduler/pkg/schedule"
)

func buildInstance(t *testing.T, yamlDoc string) *instance.Instance {
	t.Helper()
	cfg, err := schedconfig.Parse([]byte(yamlDoc))
	require.NoError(t, err)
	inst, err := instance.Build(cfg)
	require.NoError(t, err)
	return inst
}

// Scenario A: canonical instance, 2 candidates, back-to-back Technical
// then HR with zero order breaks.
func TestSolve_ScenarioA_CanonicalInstance(t *testing.T) {
	inst := buildInstance(t, `
num_candidates: 2
panels:
  Technical: 45
  HR: 30
order: [Technical, HR]
availabilities:
  Technical: "09:00-17:00"
  HR: "09:00-17:00"
start_time: "08:30"
end_time: "17:00"
slot_duration_minutes: 15
max_gap_minutes: 15
`)

	result := Solve(context.Background(), inst, Options{MaxTimeSeconds: 20}, nil)
	require.Equal(t, StatusOptimal, result.Status, "result: %+v", result.Err)
	require.NotNil(t, result.Schedule)
	assert.Equal(t, 0, result.Schedule.Summary.OrderBreaks)
	// Technical has capacity 1, so the second candidate's Technical runs
	// 09:45-10:30 and its HR ends at 11:00.
	assert.Equal(t, "11:00", result.Schedule.Summary.DayEndTime)

	for _, sessions := range result.Schedule.Candidates {
		require.Len(t, sessions, 2)
		assert.Equal(t, "Technical", sessions[0].Panel)
		assert.Equal(t, "HR", sessions[1].Panel)
		assert.Equal(t, sessions[0].EndTime, sessions[1].StartTime)
	}
}

// Scenario D: three candidates, one panel with too little availability
// for all three 60-minute sessions to fit — infeasible.
func TestSolve_ScenarioD_Infeasible(t *testing.T) {
	inst := buildInstance(t, `
num_candidates: 3
panels:
  Director: 60
order: []
availabilities:
  Director: "08:30-10:00"
start_time: "08:30"
end_time: "17:00"
`)

	result := Solve(context.Background(), inst, Options{MaxTimeSeconds: 20}, nil)
	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Nil(t, result.Schedule)
}

// Scenario E: zero-gap tolerance forces sessions to be exactly
// back-to-back.
func TestSolve_ScenarioE_GapTightness(t *testing.T) {
	inst := buildInstance(t, `
num_candidates: 1
panels:
  A: 60
  B: 60
order: []
availabilities:
  A: "08:30-12:00"
  B: "08:30-12:00"
start_time: "08:30"
end_time: "17:00"
max_gap_minutes: 0
`)

	result := Solve(context.Background(), inst, Options{MaxTimeSeconds: 20}, nil)
	require.Equal(t, StatusOptimal, result.Status, "result: %+v", result.Err)
	sessions := result.Schedule.Candidates[0]
	require.Len(t, sessions, 2)
	assert.Equal(t, sessions[0].EndTime, sessions[1].StartTime)
}

// A three-panel preferred-order chain must remain feasible: the
// non-interleaving constraint between any two panels in the chain must
// not force every other session into a single branch, or a third
// session's ordering requirement and the pairwise gap constraint
// contradict each other.
func TestSolve_ThreePanelChain_Feasible(t *testing.T) {
	inst := buildInstance(t, `
num_candidates: 1
panels:
  Technical: 30
  HR: 30
  Director: 30
order: [Technical, HR, Director]
availabilities:
  Technical: "09:00-17:00"
  HR: "09:00-17:00"
  Director: "09:00-17:00"
start_time: "08:30"
end_time: "17:00"
slot_duration_minutes: 15
max_gap_minutes: 15
`)

	result := Solve(context.Background(), inst, Options{MaxTimeSeconds: 20}, nil)
	require.Equal(t, StatusOptimal, result.Status, "result: %+v", result.Err)
	require.NotNil(t, result.Schedule)
	sessions := result.Schedule.Candidates[0]
	require.Len(t, sessions, 3)
	assert.Equal(t, "Technical", sessions[0].Panel)
	assert.Equal(t, "HR", sessions[1].Panel)
	assert.Equal(t, "Director", sessions[2].Panel)
}

// Scenario F: solve_multi returns distinct schedules that all have the
// first schedule's order-break count.
func TestSolveMulti_ScenarioF_Diversity(t *testing.T) {
	inst := buildInstance(t, `
num_candidates: 2
panels:
  Technical: 45
  HR: 30
order: [Technical, HR]
availabilities:
  Technical: "09:00-17:00"
  HR: "09:00-17:00"
start_time: "08:30"
end_time: "17:00"
`)

	results := SolveMulti(context.Background(), inst, Options{MaxTimeSeconds: 20}, 3, nil)
	require.Len(t, results, 3)

	first := results[0]
	require.Equal(t, StatusOptimal, first.Status, "result: %+v", first.Err)

	seen := map[string]bool{}
	for _, r := range results {
		require.NotNil(t, r.Schedule)
		key := scheduleKey(r.Schedule)
		assert.False(t, seen[key], "expected every solve_multi schedule to be distinct")
		seen[key] = true
		assert.Equal(t, first.Schedule.Summary.OrderBreaks, r.Schedule.Summary.OrderBreaks)
	}
}

// An already-cancelled context must fail fast rather than letting
// buildAndSolve fall through to an unbounded CP-SAT search.
func TestSolve_CancelledContext_ReturnsErrorImmediately(t *testing.T) {
	inst := buildInstance(t, `
num_candidates: 1
panels:
  A: 30
order: []
availabilities:
  A: "08:30-12:00"
start_time: "08:30"
end_time: "17:00"
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Solve(ctx, inst, Options{MaxTimeSeconds: 20}, nil)
	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

// A context whose deadline has already elapsed must fail fast too,
// never falling through to an unbounded CP-SAT search.
func TestSolve_ExpiredDeadline_FailsFastInsteadOfUnbounded(t *testing.T) {
	inst := buildInstance(t, `
num_candidates: 1
panels:
  A: 30
order: []
availabilities:
  A: "08:30-12:00"
start_time: "08:30"
end_time: "17:00"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	result := Solve(ctx, inst, Options{MaxTimeSeconds: 20}, nil)
	assert.Equal(t, StatusTimeLimitReachedNoSolution, result.Status)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
}

// scheduleKey flattens every session's start time into a string key,
// so two schedules compare equal only if every (candidate, panel)
// start time matches.
func scheduleKey(s *schedule.Schedule) string {
	var sb strings.Builder
	for _, sessions := range s.Candidates {
		for _, sess := range sessions {
			sb.WriteString(sess.Panel)
			sb.WriteByte('@')
			sb.WriteString(sess.StartTime)
			sb.WriteByte(';')
		}
		sb.WriteByte('|')
	}
	return sb.String()
}
