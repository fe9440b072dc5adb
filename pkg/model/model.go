// Package model translates a problem Instance into a CP-SAT model:
// start/interval variables, the hard constraints of section 3 of the
// scheduling domain, and the hierarchical weighted objective. It knows
// nothing about solving or extracting — only about building variables
// and constraints on a Builder supplied by the caller.
package model

import (
	"fmt"

	"github.com/ariera/interviews-scheduler/pkg/instance"
	"github.com/ariera/interviews-scheduler/pkg/solver/backend"
)

// ModelError reports an internal inconsistency discovered while
// building the CP model from an already-built Instance. Per the
// component's failure semantics this should never occur — it exists to
// catch programmer bugs, not bad input.
type ModelError struct {
	Reason string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error: %s", e.Reason)
}

// Session identifies one (candidate, panel) pair.
type Session struct {
	Candidate int
	Panel     int
}

// Model holds every variable the solver driver and extractor need,
// keyed by candidate and panel index.
type Model struct {
	Instance *instance.Instance

	// Start[c][p] is the start-slot variable for candidate c, panel p.
	Start [][]backend.IntVar
	// End[c][p] is the derived end-slot variable.
	End [][]backend.IntVar
	// Interval[c][p] is the interval variable spanning [Start, End).
	Interval [][]backend.IntervalVar

	// Follows[c][a][b] is true iff panel b immediately follows panel a
	// in candidate c's chronological sequence.
	Follows [][][]backend.BoolVar

	// Break[c][i] is true iff the i-th adjacent pair of the preferred
	// order is violated for candidate c.
	Break [][]backend.BoolVar

	// Makespan is the maximum end time across every session.
	Makespan backend.IntVar
}

// objectiveWeight must exceed the largest possible value of the
// makespan term so minimizing the weighted sum strictly prioritizes
// order breaks over makespan: W = horizon_slots + 1.
func objectiveWeight(inst *instance.Instance) int64 {
	return int64(inst.HorizonSlots) + 1
}

// Build constructs every variable and hard constraint described by the
// instance on b, and sets the hierarchical weighted objective. The
// returned Model is ready to hand to the solver driver.
func Build(b backend.Builder, inst *instance.Instance) (*Model, error) {
	n := inst.NumCandidates
	p := inst.NumPanels()
	if n <= 0 || p <= 0 {
		return nil, &ModelError{Reason: "instance has no candidates or no panels"}
	}

	m := &Model{
		Instance: inst,
		Start:    make([][]backend.IntVar, n),
		End:      make([][]backend.IntVar, n),
		Interval: make([][]backend.IntervalVar, n),
		Follows:  make([][][]backend.BoolVar, n),
		Break:    make([][]backend.BoolVar, n),
	}

	for c := 0; c < n; c++ {
		m.Start[c] = make([]backend.IntVar, p)
		m.End[c] = make([]backend.IntVar, p)
		m.Interval[c] = make([]backend.IntervalVar, p)
		for panel := 0; panel < p; panel++ {
			dur := inst.Panels[panel].DurationSlots
			ub := int64(inst.HorizonSlots - dur)
			if ub < 0 {
				return nil, &ModelError{Reason: fmt.Sprintf("panel %q duration exceeds horizon", inst.Panels[panel].Name)}
			}
			start := b.NewIntVar(0, ub).WithName(fmt.Sprintf("start[%d,%d]", c, panel))
			end := b.NewIntVar(int64(dur), int64(inst.HorizonSlots)).WithName(fmt.Sprintf("end[%d,%d]", c, panel))
			b.AddEquality(backend.Sum(start, backend.ConstVar(int64(dur))), end)
			interval := b.NewIntervalVar(start, backend.ConstVar(int64(dur)), end)

			m.Start[c][panel] = start
			m.End[c][panel] = end
			m.Interval[c][panel] = interval
		}
	}

	if err := addAvailability(b, m, inst); err != nil {
		return nil, err
	}
	addCandidateNoOverlap(b, m, inst)
	addPanelCapacity(b, m, inst)
	addConflictGroups(b, m, inst)
	if err := addFollowsAndGap(b, m, inst); err != nil {
		return nil, err
	}
	if err := addPositionConstraints(b, m, inst); err != nil {
		return nil, err
	}
	addPreferredOrderBreaks(b, m, inst)
	addObjective(b, m, inst)

	return m, nil
}

// addAvailability encodes, for every (c,p), a disjunction over the
// panel's availability windows: exactly one window is chosen and the
// session's interval must fit inside it.
func addAvailability(b backend.Builder, m *Model, inst *instance.Instance) error {
	for c := 0; c < inst.NumCandidates; c++ {
		for panel := 0; panel < inst.NumPanels(); panel++ {
			windows := inst.Avail[panel]
			if len(windows) == 0 {
				return &ModelError{Reason: fmt.Sprintf("panel %q has no availability windows", inst.Panels[panel].Name)}
			}
			inWindow := make([]backend.BoolVar, len(windows))
			for w, win := range windows {
				bv := b.NewBoolVar().WithName(fmt.Sprintf("in_window[%d,%d,%d]", c, panel, w))
				inWindow[w] = bv
				b.AddGreaterOrEqual(m.Start[c][panel], backend.ConstVar(int64(win.Start))).OnlyEnforceIf(bv)
				b.AddLessOrEqual(m.End[c][panel], backend.ConstVar(int64(win.End))).OnlyEnforceIf(bv)
			}
			b.AddExactlyOne(inWindow...)
		}
	}
	return nil
}

// addCandidateNoOverlap forbids a candidate's own sessions from
// overlapping.
func addCandidateNoOverlap(b backend.Builder, m *Model, inst *instance.Instance) {
	for c := 0; c < inst.NumCandidates; c++ {
		b.AddNoOverlap(m.Interval[c]...)
	}
}

// addPanelCapacity forbids two candidates from occupying the same
// capacity-1 panel at once. Lunch (or any unlimited-capacity panel) is
// exempt.
func addPanelCapacity(b backend.Builder, m *Model, inst *instance.Instance) {
	for panel := 0; panel < inst.NumPanels(); panel++ {
		if inst.Panels[panel].Capacity == instance.Unlimited {
			continue
		}
		intervals := make([]backend.IntervalVar, inst.NumCandidates)
		for c := 0; c < inst.NumCandidates; c++ {
			intervals[c] = m.Interval[c][panel]
		}
		b.AddNoOverlap(intervals...)
	}
}

// addConflictGroups forbids sessions of any panels sharing a conflict
// group from overlapping, across all candidates.
func addConflictGroups(b backend.Builder, m *Model, inst *instance.Instance) {
	for _, group := range inst.ConflictGroups {
		var intervals []backend.IntervalVar
		for _, panel := range group {
			for c := 0; c < inst.NumCandidates; c++ {
				intervals = append(intervals, m.Interval[c][panel])
			}
		}
		b.AddNoOverlap(intervals...)
	}
}

// addFollowsAndGap builds the immediate-successor boolean tensor that
// encodes, per candidate, a Hamiltonian path over the panels, and
// attaches the ordering and hard gap-bound constraints to it.
func addFollowsAndGap(b backend.Builder, m *Model, inst *instance.Instance) error {
	p := inst.NumPanels()
	if p < 1 {
		return &ModelError{Reason: "instance has no panels"}
	}

	for c := 0; c < inst.NumCandidates; c++ {
		m.Follows[c] = make([][]backend.BoolVar, p)
		for a := 0; a < p; a++ {
			m.Follows[c][a] = make([]backend.BoolVar, p)
			for bp := 0; bp < p; bp++ {
				if a == bp {
					continue
				}
				fv := b.NewBoolVar().WithName(fmt.Sprintf("follows[%d,%d,%d]", c, a, bp))
				m.Follows[c][a][bp] = fv

				// Ordering: follows[c,a,b] => start[c,b] >= end[c,a].
				b.AddGreaterOrEqual(m.Start[c][bp], m.End[c][a]).OnlyEnforceIf(fv)
				// Gap bound: follows[c,a,b] => start[c,b] <= end[c,a] + max_gap_slots.
				bound := backend.Sum(m.End[c][a], backend.ConstVar(int64(inst.MaxGapSlots)))
				b.AddLessOrEqual(m.Start[c][bp], bound).OnlyEnforceIf(fv)

				// Non-interleaving: follows[c,a,b] => for every other
				// session third, either third ends before a's session
				// starts its gap window (third is entirely before a) or
				// third starts no earlier than b (third is at or after
				// b). Both branches are independently gated so the
				// solver may pick either one instead of having a single
				// forced branch.
				for third := 0; third < p; third++ {
					if third == a || third == bp {
						continue
					}
					before := b.NewBoolVar().WithName(fmt.Sprintf("before[%d,%d,%d,%d]", c, a, bp, third))
					after := b.NewBoolVar().WithName(fmt.Sprintf("after[%d,%d,%d,%d]", c, a, bp, third))
					b.AddLessThan(m.Start[c][third], m.End[c][a]).OnlyEnforceIf(before, fv)
					b.AddGreaterOrEqual(m.Start[c][third], m.Start[c][bp]).OnlyEnforceIf(after, fv)
					b.AddBoolOr(before, after).OnlyEnforceIf(fv)
				}
			}

			// Each panel has at most one successor and at most one
			// predecessor.
			var asSuccessorSource []backend.BoolVar
			var asPredecessorSource []backend.BoolVar
			for other := 0; other < p; other++ {
				if other == a {
					continue
				}
				asSuccessorSource = append(asSuccessorSource, m.Follows[c][a][other])
				asPredecessorSource = append(asPredecessorSource, m.Follows[c][other][a])
			}
			b.AddAtMostOne(asSuccessorSource...)
			b.AddAtMostOne(asPredecessorSource...)
		}

		// Exactly one panel has no predecessor (first session); exactly
		// one has no successor (last session). hasPred[a] is true iff
		// some other panel precedes a; hasSucc[a] is true iff a precedes
		// some other panel.
		var noPred []backend.BoolVar
		var noSucc []backend.BoolVar
		for a := 0; a < p; a++ {
			var preds []backend.BoolVar
			var succs []backend.BoolVar
			for other := 0; other < p; other++ {
				if other == a {
					continue
				}
				preds = append(preds, m.Follows[c][other][a])
				succs = append(succs, m.Follows[c][a][other])
			}
			hasPred := b.NewBoolVar().WithName(fmt.Sprintf("has_pred[%d,%d]", c, a))
			hasSucc := b.NewBoolVar().WithName(fmt.Sprintf("has_succ[%d,%d]", c, a))
			if len(preds) > 0 {
				b.AddMaxEquality(backend.BoolToLinear(hasPred), backend.BoolsToLinear(preds)...)
			}
			if len(succs) > 0 {
				b.AddMaxEquality(backend.BoolToLinear(hasSucc), backend.BoolsToLinear(succs)...)
			}
			noPred = append(noPred, hasPred.Not())
			noSucc = append(noSucc, hasSucc.Not())
		}
		if p > 1 {
			b.AddExactlyOne(noPred...)
			b.AddExactlyOne(noSucc...)
		}
	}
	return nil
}

// addPositionConstraints pins panels with a hard position requirement
// to the specified chronological rank in every candidate's sequence.
// First and Last forbid any predecessor or successor in the follows
// relation; Abs(k) requires exactly k of the candidate's other sessions
// to start earlier.
func addPositionConstraints(b backend.Builder, m *Model, inst *instance.Instance) error {
	p := inst.NumPanels()
	for panel, pc := range inst.PositionConstraints {
		if panel < 0 || panel >= p {
			return &ModelError{Reason: fmt.Sprintf("position constraint references invalid panel index %d", panel)}
		}
		for c := 0; c < inst.NumCandidates; c++ {
			var preds []backend.BoolVar
			for other := 0; other < p; other++ {
				if other == panel {
					continue
				}
				preds = append(preds, m.Follows[c][other][panel])
			}
			switch pc.Kind {
			case instance.PositionFirst:
				for _, pred := range preds {
					b.AddEquality(backend.BoolToLinear(pred), backend.ConstVar(0))
				}
			case instance.PositionLast:
				var succs []backend.BoolVar
				for other := 0; other < p; other++ {
					if other == panel {
						continue
					}
					succs = append(succs, m.Follows[c][panel][other])
				}
				for _, succ := range succs {
					b.AddEquality(backend.BoolToLinear(succ), backend.ConstVar(0))
				}
			case instance.PositionAbs:
				sum := backend.NewLinearExpr()
				for other := 0; other < p; other++ {
					if other == panel {
						continue
					}
					earlier := b.NewBoolVar().WithName(fmt.Sprintf("earlier[%d,%d,%d]", c, other, panel))
					b.AddLessThan(m.Start[c][other], m.Start[c][panel]).OnlyEnforceIf(earlier)
					b.AddGreaterOrEqual(m.Start[c][other], m.Start[c][panel]).OnlyEnforceIf(earlier.Not())
					sum = sum.Add(earlier)
				}
				b.AddEquality(sum, backend.ConstVar(int64(pc.Abs)))
			}
		}
	}
	return nil
}

// addPreferredOrderBreaks defines break[c,i] for every adjacent pair in
// the preferred order list, true iff the pair's actual chronological
// order is reversed.
func addPreferredOrderBreaks(b backend.Builder, m *Model, inst *instance.Instance) {
	pairs := len(inst.PreferredOrder) - 1
	if pairs < 0 {
		pairs = 0
	}
	for c := 0; c < inst.NumCandidates; c++ {
		m.Break[c] = make([]backend.BoolVar, pairs)
		for i := 0; i < pairs; i++ {
			o1 := inst.PreferredOrder[i]
			o2 := inst.PreferredOrder[i+1]
			brk := b.NewBoolVar().WithName(fmt.Sprintf("break[%d,%d]", c, i))
			m.Break[c][i] = brk

			// break == 1 iff start[c,o1] > start[c,o2].
			b.AddGreaterThan(m.Start[c][o1], m.Start[c][o2]).OnlyEnforceIf(brk)
			b.AddLessOrEqual(m.Start[c][o1], m.Start[c][o2]).OnlyEnforceIf(brk.Not())
		}
	}
}

// addObjective sets the single weighted objective W·∑break + makespan,
// with W chosen strictly larger than horizon_slots so order breaks
// always dominate makespan lexicographically.
func addObjective(b backend.Builder, m *Model, inst *instance.Instance) {
	makespan := b.NewIntVar(0, int64(inst.HorizonSlots)).WithName("makespan")
	for c := 0; c < inst.NumCandidates; c++ {
		for panel := 0; panel < inst.NumPanels(); panel++ {
			b.AddLessOrEqual(m.End[c][panel], makespan)
		}
	}
	m.Makespan = makespan

	w := objectiveWeight(inst)
	obj := backend.NewLinearExpr().Add(makespan)
	for c := 0; c < inst.NumCandidates; c++ {
		for _, brk := range m.Break[c] {
			obj = obj.AddTerm(brk, w)
		}
	}
	b.Minimize(obj)
}
