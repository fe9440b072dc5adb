package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariera/interviews-scheduler/pkg/instance"
)

func twoPanelInstance() *instance.Instance {
	return &instance.Instance{
		SlotMinutes:     15,
		HorizonSlots:    32, // 08:30-16:30 in 15-min slots
		NumCandidates:   1,
		DayStartMinutes: 8*60 + 30,
		Panels: []instance.Panel{
			{Name: "Technical", DurationSlots: 3, Capacity: 1},
			{Name: "HR", DurationSlots: 2, Capacity: 1},
		},
		PanelIndex: map[string]int{"Technical": 0, "HR": 1},
		Avail: [][]instance.Window{
			{{Start: 0, End: 32}},
			{{Start: 0, End: 32}},
		},
		PreferredOrder:      []int{0, 1},
		PositionConstraints: map[int]instance.PositionConstraint{},
		MaxGapSlots:         1,
		LunchIndex:          -1,
	}
}

func backToBackSchedule() *Schedule {
	return &Schedule{
		Candidates: [][]Session{
			{
				{Panel: "Technical", StartTime: "09:00", EndTime: "09:45", startSlot: 2, endSlot: 5, panelIdx: 0},
				{Panel: "HR", StartTime: "09:45", EndTime: "10:15", startSlot: 5, endSlot: 7, panelIdx: 1},
			},
		},
		Summary: Summary{Status: "OPTIMAL", OrderBreaks: 0, DayEndTime: "10:15", MaxGapEnforced: 15},
	}
}

func TestVerify_AcceptsValidSchedule(t *testing.T) {
	inst := twoPanelInstance()
	sched := backToBackSchedule()
	assert.NoError(t, Verify(inst, sched))
}

func TestVerify_DetectsDoubleBooking(t *testing.T) {
	inst := twoPanelInstance()
	sched := backToBackSchedule()
	sched.Candidates[0][1].startSlot = 4 // overlaps Technical's [2,5)
	sched.Candidates[0][1].endSlot = 6

	err := Verify(inst, sched)
	require.Error(t, err)
	var vf *VerificationFailed
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "NoDoubleBooking", vf.Invariant)
}

func TestVerify_DetectsGapBoundViolation(t *testing.T) {
	inst := twoPanelInstance()
	sched := backToBackSchedule()
	sched.Candidates[0][1].startSlot = 10 // gap of 5 slots > max_gap_slots(1)
	sched.Candidates[0][1].endSlot = 12

	err := Verify(inst, sched)
	require.Error(t, err)
	var vf *VerificationFailed
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "GapBound", vf.Invariant)
}

func TestVerify_DetectsOutOfAvailabilityWindow(t *testing.T) {
	inst := twoPanelInstance()
	inst.Avail[0] = []instance.Window{{Start: 10, End: 32}} // Technical unavailable before slot 10
	sched := backToBackSchedule()

	err := Verify(inst, sched)
	require.Error(t, err)
	var vf *VerificationFailed
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "Availability", vf.Invariant)
}

func TestVerify_DetectsPositionConstraintViolation(t *testing.T) {
	inst := twoPanelInstance()
	inst.PositionConstraints[1] = instance.PositionConstraint{Kind: instance.PositionFirst} // HR must be first
	sched := backToBackSchedule()

	err := Verify(inst, sched)
	require.Error(t, err)
	var vf *VerificationFailed
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "PositionConstraint", vf.Invariant)
}

func TestVerify_DetectsPanelCapacityViolation(t *testing.T) {
	inst := twoPanelInstance()
	inst.NumCandidates = 2
	sched := backToBackSchedule()
	// Second candidate's Technical session overlaps the first's.
	sched.Candidates = append(sched.Candidates, []Session{
		{Panel: "Technical", StartTime: "09:15", EndTime: "10:00", startSlot: 3, endSlot: 6, panelIdx: 0},
		{Panel: "HR", StartTime: "10:00", EndTime: "10:30", startSlot: 6, endSlot: 8, panelIdx: 1},
	})

	err := Verify(inst, sched)
	require.Error(t, err)
	var vf *VerificationFailed
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "PanelCapacity", vf.Invariant)
}

func TestVerify_ConflictGroupOverlapDetected(t *testing.T) {
	inst := twoPanelInstance()
	inst.NumCandidates = 2
	inst.MaxGapSlots = 100 // isolate the conflict-group check from gap tightness
	inst.ConflictGroups = [][]int{{0, 1}}
	sched := backToBackSchedule() // candidate 0: Technical[2,5), HR[5,7)
	sched.Candidates = append(sched.Candidates, []Session{
		// Candidate 1's HR session overlaps candidate 0's Technical
		// session; Technical and HR share a conflict group even though
		// neither panel's own capacity is violated.
		{Panel: "HR", StartTime: "09:15", EndTime: "09:45", startSlot: 3, endSlot: 5, panelIdx: 1},
		{Panel: "Technical", StartTime: "10:15", EndTime: "11:00", startSlot: 7, endSlot: 10, panelIdx: 0},
	})

	err := Verify(inst, sched)
	require.Error(t, err)
	var vf *VerificationFailed
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "ConflictGroup", vf.Invariant)
}
