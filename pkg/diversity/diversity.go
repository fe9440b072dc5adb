// Package diversity generates the no-good cuts that drive
// solve_multi's diversification loop: each cut forbids repeating a
// previously produced solution's exact start-time assignment while
// leaving every other part of the search space untouched.
package diversity

import (
	"fmt"

	"github.com/ariera/interviews-scheduler/pkg/model"
	"github.com/ariera/interviews-scheduler/pkg/solver/backend"
)

// Snapshot is one prior solution's start-slot assignment, indexed by
// [candidate][panel].
type Snapshot [][]int

// Controller owns the list of cuts emitted so far during a
// multi-solution search, so they can be replayed against a fresh model
// or cleared to start a new search from scratch.
type Controller struct {
	solutions []Snapshot
}

// NewController returns an empty diversity controller.
func NewController() *Controller { return &Controller{} }

// Record appends a solution's start-slot assignment to the cut list.
func (c *Controller) Record(snap Snapshot) {
	c.solutions = append(c.solutions, snap)
}

// Len returns the number of solutions recorded so far.
func (c *Controller) Len() int { return len(c.solutions) }

// Clear drops every recorded solution, resetting the controller for a
// fresh search.
func (c *Controller) Clear() { c.solutions = nil }

// ApplyCuts adds one no-good cut per recorded solution to b, each of
// the form `OR over (c,p) of (start[c,p] != S.start[c,p])` — i.e. at
// least one start variable must differ from every previously produced
// solution.
func (ctl *Controller) ApplyCuts(b backend.Builder, m *model.Model) error {
	for si, snap := range ctl.solutions {
		if len(snap) != len(m.Start) {
			return fmt.Errorf("diversity: snapshot %d has %d candidates, model has %d", si, len(snap), len(m.Start))
		}
		var differs []backend.BoolVar
		for c := range snap {
			if len(snap[c]) != len(m.Start[c]) {
				return fmt.Errorf("diversity: snapshot %d candidate %d has %d panels, model has %d", si, c, len(snap[c]), len(m.Start[c]))
			}
			for p := range snap[c] {
				diff := b.NewBoolVar().WithName(fmt.Sprintf("diversity_diff[%d,%d,%d]", si, c, p))
				target := backend.ConstVar(int64(snap[c][p]))
				b.AddNotEqual(m.Start[c][p], target).OnlyEnforceIf(diff)
				b.AddEquality(m.Start[c][p], target).OnlyEnforceIf(diff.Not())
				differs = append(differs, diff)
			}
		}
		b.AddBoolOr(differs...)
	}
	return nil
}

// SnapshotFrom reads the solved start-slot assignment for every
// (candidate, panel) out of resp, for recording via Record.
func SnapshotFrom(m *model.Model, resp *backend.Response) Snapshot {
	snap := make(Snapshot, len(m.Start))
	for c := range m.Start {
		snap[c] = make([]int, len(m.Start[c]))
		for p := range m.Start[c] {
			snap[c][p] = int(resp.Value(m.Start[c][p]))
		}
	}
	return snap
}
