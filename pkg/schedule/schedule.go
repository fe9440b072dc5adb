// Package schedule decodes a solved model into a human-readable
// Schedule and re-verifies every hard constraint before it is trusted.
package schedule

import (
	"fmt"
	"sort"

	"github.com/ariera/interviews-scheduler/pkg/instance"
	"github.com/ariera/interviews-scheduler/pkg/model"
	"github.com/ariera/interviews-scheduler/pkg/schedtime"
	"github.com/ariera/interviews-scheduler/pkg/solver/backend"
)

// Session is one concrete occurrence of a panel for one candidate,
// expressed in wall-clock "HH:MM" strings.
type Session struct {
	Panel     string `json:"panel"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	startSlot int
	endSlot   int
	panelIdx  int
}

// Summary reports the quality of a schedule.
type Summary struct {
	Status         string `json:"status"` // "OPTIMAL" | "FEASIBLE"
	OrderBreaks    int    `json:"order_breaks"`
	DayEndTime     string `json:"day_end_time"`
	MaxGapEnforced int    `json:"max_gap_enforced"` // minutes
}

// Schedule is the decoded solution: one ordered session list per
// candidate, plus a quality summary.
type Schedule struct {
	Candidates [][]Session
	Summary    Summary
}

// VerificationFailed reports that a solver-returned assignment violates
// an invariant the model was supposed to guarantee. Its presence is
// always a modeling bug, never a user input problem.
type VerificationFailed struct {
	Invariant string
	Detail    string
}

func (e *VerificationFailed) Error() string {
	return fmt.Sprintf("verification failed [%s]: %s", e.Invariant, e.Detail)
}

// Extract decodes a solved Response into a Schedule, using the slot
// assignments chosen by the solver. It does not itself check hard
// constraints; call Verify afterward.
func Extract(inst *instance.Instance, m *model.Model, resp *backend.Response, status string) (*Schedule, error) {
	sched := &Schedule{
		Candidates: make([][]Session, inst.NumCandidates),
	}

	maxEnd := 0
	for c := 0; c < inst.NumCandidates; c++ {
		sessions := make([]Session, inst.NumPanels())
		for p := 0; p < inst.NumPanels(); p++ {
			startSlot := int(resp.Value(m.Start[c][p]))
			endSlot := int(resp.Value(m.End[c][p]))
			sessions[p] = Session{
				Panel:     inst.Panels[p].Name,
				StartTime: schedtime.FormatTime(inst.DayStartMinutes + startSlot*inst.SlotMinutes),
				EndTime:   schedtime.FormatTime(inst.DayStartMinutes + endSlot*inst.SlotMinutes),
				startSlot: startSlot,
				endSlot:   endSlot,
				panelIdx:  p,
			}
			if endSlot > maxEnd {
				maxEnd = endSlot
			}
		}
		sort.Slice(sessions, func(i, j int) bool { return sessions[i].startSlot < sessions[j].startSlot })
		sched.Candidates[c] = sessions
	}

	orderBreaks := countOrderBreaks(inst, resp, m)

	sched.Summary = Summary{
		Status:         status,
		OrderBreaks:    orderBreaks,
		DayEndTime:     schedtime.FormatTime(inst.DayStartMinutes + maxEnd*inst.SlotMinutes),
		MaxGapEnforced: inst.MaxGapSlots * inst.SlotMinutes,
	}
	return sched, nil
}

func countOrderBreaks(inst *instance.Instance, resp *backend.Response, m *model.Model) int {
	breaks := 0
	for c := 0; c < inst.NumCandidates; c++ {
		for _, brk := range m.Break[c] {
			if resp.BoolValue(brk) {
				breaks++
			}
		}
	}
	return breaks
}

// Verify re-checks every hard invariant of the scheduling domain
// against the decoded Schedule, returning VerificationFailed on the
// first discrepancy found. It is the last line of defense against a
// modeling bug slipping a broken assignment past the solver.
func Verify(inst *instance.Instance, sched *Schedule) error {
	if len(sched.Candidates) != inst.NumCandidates {
		return &VerificationFailed{Invariant: "CandidateCount", Detail: fmt.Sprintf("expected %d candidates, got %d", inst.NumCandidates, len(sched.Candidates))}
	}

	for c, sessions := range sched.Candidates {
		if len(sessions) != inst.NumPanels() {
			return &VerificationFailed{Invariant: "PanelCoverage", Detail: fmt.Sprintf("candidate %d has %d sessions, expected %d", c, len(sessions), inst.NumPanels())}
		}

		for i, s := range sessions {
			if s.startSlot < 0 || s.endSlot > inst.HorizonSlots {
				return &VerificationFailed{Invariant: "DayBounds", Detail: fmt.Sprintf("candidate %d panel %q: [%d,%d) outside [0,%d)", c, s.Panel, s.startSlot, s.endSlot, inst.HorizonSlots)}
			}
			if s.endSlot-s.startSlot != inst.Panels[s.panelIdx].DurationSlots {
				return &VerificationFailed{Invariant: "DurationMismatch", Detail: fmt.Sprintf("candidate %d panel %q: duration %d, expected %d", c, s.Panel, s.endSlot-s.startSlot, inst.Panels[s.panelIdx].DurationSlots)}
			}
			if !withinAvailability(inst, s) {
				return &VerificationFailed{Invariant: "Availability", Detail: fmt.Sprintf("candidate %d panel %q: [%d,%d) not inside any availability window", c, s.Panel, s.startSlot, s.endSlot)}
			}

			// No double-booking: sessions are sorted by start, so only
			// the immediate neighbor needs checking for overlap.
			if i+1 < len(sessions) {
				next := sessions[i+1]
				if next.startSlot < s.endSlot {
					return &VerificationFailed{Invariant: "NoDoubleBooking", Detail: fmt.Sprintf("candidate %d: %q [%d,%d) overlaps %q [%d,%d)", c, s.Panel, s.startSlot, s.endSlot, next.Panel, next.startSlot, next.endSlot)}
				}
				gap := next.startSlot - s.endSlot
				if gap > inst.MaxGapSlots {
					return &VerificationFailed{Invariant: "GapBound", Detail: fmt.Sprintf("candidate %d: gap of %d slots between %q and %q exceeds max %d", c, gap, s.Panel, next.Panel, inst.MaxGapSlots)}
				}
			}
		}

		if err := verifyPositions(inst, c, sessions); err != nil {
			return err
		}
	}

	if err := verifyPanelCapacity(inst, sched); err != nil {
		return err
	}
	if err := verifyConflictGroups(inst, sched); err != nil {
		return err
	}
	if err := verifyOrderBreaks(inst, sched); err != nil {
		return err
	}

	return nil
}

func withinAvailability(inst *instance.Instance, s Session) bool {
	for _, w := range inst.Avail[s.panelIdx] {
		if s.startSlot >= w.Start && s.endSlot <= w.End {
			return true
		}
	}
	return false
}

func verifyPositions(inst *instance.Instance, c int, sessions []Session) error {
	for panelIdx, pc := range inst.PositionConstraints {
		rank := -1
		for i, s := range sessions {
			if s.panelIdx == panelIdx {
				rank = i
				break
			}
		}
		if rank < 0 {
			return &VerificationFailed{Invariant: "PositionConstraint", Detail: fmt.Sprintf("candidate %d: panel %q missing", c, inst.Panels[panelIdx].Name)}
		}
		switch pc.Kind {
		case instance.PositionFirst:
			if rank != 0 {
				return &VerificationFailed{Invariant: "PositionConstraint", Detail: fmt.Sprintf("candidate %d: panel %q expected first, got rank %d", c, inst.Panels[panelIdx].Name, rank)}
			}
		case instance.PositionLast:
			if rank != len(sessions)-1 {
				return &VerificationFailed{Invariant: "PositionConstraint", Detail: fmt.Sprintf("candidate %d: panel %q expected last, got rank %d", c, inst.Panels[panelIdx].Name, rank)}
			}
		case instance.PositionAbs:
			if rank != pc.Abs {
				return &VerificationFailed{Invariant: "PositionConstraint", Detail: fmt.Sprintf("candidate %d: panel %q expected rank %d, got %d", c, inst.Panels[panelIdx].Name, pc.Abs, rank)}
			}
		}
	}
	return nil
}

func verifyPanelCapacity(inst *instance.Instance, sched *Schedule) error {
	for p := 0; p < inst.NumPanels(); p++ {
		if inst.Panels[p].Capacity == instance.Unlimited {
			continue
		}
		var intervals []instance.Window
		for _, sessions := range sched.Candidates {
			for _, s := range sessions {
				if s.panelIdx == p {
					intervals = append(intervals, instance.Window{Start: s.startSlot, End: s.endSlot})
				}
			}
		}
		if overlapping(intervals) {
			return &VerificationFailed{Invariant: "PanelCapacity", Detail: fmt.Sprintf("panel %q has overlapping sessions across candidates", inst.Panels[p].Name)}
		}
	}
	return nil
}

func verifyConflictGroups(inst *instance.Instance, sched *Schedule) error {
	for gi, group := range inst.ConflictGroups {
		inGroup := make(map[int]bool, len(group))
		for _, p := range group {
			inGroup[p] = true
		}
		var intervals []instance.Window
		for _, sessions := range sched.Candidates {
			for _, s := range sessions {
				if inGroup[s.panelIdx] {
					intervals = append(intervals, instance.Window{Start: s.startSlot, End: s.endSlot})
				}
			}
		}
		if overlapping(intervals) {
			return &VerificationFailed{Invariant: "ConflictGroup", Detail: fmt.Sprintf("conflict group %d has overlapping sessions", gi)}
		}
	}
	return nil
}

func verifyOrderBreaks(inst *instance.Instance, sched *Schedule) error {
	if len(inst.PreferredOrder) < 2 {
		return nil
	}
	actual := 0
	for _, sessions := range sched.Candidates {
		startOf := make(map[int]int, len(sessions))
		for _, s := range sessions {
			startOf[s.panelIdx] = s.startSlot
		}
		for i := 0; i+1 < len(inst.PreferredOrder); i++ {
			o1, o2 := inst.PreferredOrder[i], inst.PreferredOrder[i+1]
			if startOf[o1] > startOf[o2] {
				actual++
			}
		}
	}
	if actual != sched.Summary.OrderBreaks {
		return &VerificationFailed{Invariant: "OrderBreakCount", Detail: fmt.Sprintf("recomputed %d order breaks, summary claims %d", actual, sched.Summary.OrderBreaks)}
	}
	return nil
}

// overlapping reports whether any two half-open intervals in ws
// intersect.
func overlapping(ws []instance.Window) bool {
	sort.Slice(ws, func(i, j int) bool { return ws[i].Start < ws[j].Start })
	for i := 1; i < len(ws); i++ {
		if ws[i].Start < ws[i-1].End {
			return true
		}
	}
	return false
}
