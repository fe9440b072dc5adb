package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariera/interviews-scheduler/pkg/schedconfig"
)

func canonicalConfig() *schedconfig.Config {
	yamlDoc := []byte(`
num_candidates: 2
panels:
  Technical: 45
  HR: 30
  Lunch: 30
order: [Technical, HR]
availabilities:
  Technical: "09:00-17:00"
  HR: "09:00-17:00"
  Lunch: "12:00-13:00"
start_time: "09:00"
end_time: "17:00"
slot_duration_minutes: 15
max_gap_minutes: 30
`)
	cfg, err := schedconfig.Parse(yamlDoc)
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestBuild_CanonicalInstance(t *testing.T) {
	cfg := canonicalConfig()
	inst, err := Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, 15, inst.SlotMinutes)
	assert.Equal(t, 32, inst.HorizonSlots) // 8h / 15min
	assert.Equal(t, 2, inst.NumCandidates)
	assert.Equal(t, 3, inst.NumPanels())

	hrIdx, ok := inst.PanelIndex["HR"]
	require.True(t, ok)
	assert.Equal(t, 2, inst.Panels[hrIdx].DurationSlots) // 30min / 15min

	lunchIdx, ok := inst.PanelIndex["Lunch"]
	require.True(t, ok)
	assert.Equal(t, lunchIdx, inst.LunchIndex)
	assert.Equal(t, Unlimited, inst.Panels[lunchIdx].Capacity)

	techIdx := inst.PanelIndex["Technical"]
	assert.Equal(t, 1, inst.Panels[techIdx].Capacity)

	require.Len(t, inst.Avail[techIdx], 1)
	assert.Equal(t, 0, inst.Avail[techIdx][0].Start)
	assert.Equal(t, 32, inst.Avail[techIdx][0].End)

	require.Len(t, inst.PreferredOrder, 2)
	assert.Equal(t, techIdx, inst.PreferredOrder[0])
	assert.Equal(t, hrIdx, inst.PreferredOrder[1])

	assert.Equal(t, 2, inst.MaxGapSlots) // ceil(30/15)
}

func TestBuild_PositionConstraints(t *testing.T) {
	cfg := canonicalConfig()
	cfg.PositionConstraints = map[string]any{
		"Technical": "first",
		"HR":        "last",
	}
	inst, err := Build(cfg)
	require.NoError(t, err)

	techIdx := inst.PanelIndex["Technical"]
	hrIdx := inst.PanelIndex["HR"]

	require.Contains(t, inst.PositionConstraints, techIdx)
	assert.Equal(t, PositionFirst, inst.PositionConstraints[techIdx].Kind)

	require.Contains(t, inst.PositionConstraints, hrIdx)
	assert.Equal(t, PositionLast, inst.PositionConstraints[hrIdx].Kind)
}

func TestBuild_AbsPositionConstraint(t *testing.T) {
	cfg := canonicalConfig()
	cfg.PositionConstraints = map[string]any{"HR": 1}
	inst, err := Build(cfg)
	require.NoError(t, err)

	hrIdx := inst.PanelIndex["HR"]
	pc := inst.PositionConstraints[hrIdx]
	assert.Equal(t, PositionAbs, pc.Kind)
	assert.Equal(t, 1, pc.Abs)
}

func TestBuild_ConflictGroups(t *testing.T) {
	cfg := canonicalConfig()
	cfg.PanelConflicts = [][]string{{"Technical", "HR"}}
	inst, err := Build(cfg)
	require.NoError(t, err)

	require.Len(t, inst.ConflictGroups, 1)
	group := inst.ConflictGroups[0]
	assert.Contains(t, group, inst.PanelIndex["Technical"])
	assert.Contains(t, group, inst.PanelIndex["HR"])
}

func TestBuild_AvailabilityWindowClippedToHorizon(t *testing.T) {
	cfg := canonicalConfig()
	cfg.Availabilities["HR"] = "08:00-17:00"
	inst, err := Build(cfg)
	require.NoError(t, err)

	hrIdx := inst.PanelIndex["HR"]
	require.Len(t, inst.Avail[hrIdx], 1)
	assert.Equal(t, 0, inst.Avail[hrIdx][0].Start)
}

func TestBuild_MultipleAvailabilityWindows(t *testing.T) {
	cfg := canonicalConfig()
	cfg.Availabilities["HR"] = []any{"09:00-11:00", "13:00-17:00"}
	inst, err := Build(cfg)
	require.NoError(t, err)

	hrIdx := inst.PanelIndex["HR"]
	require.Len(t, inst.Avail[hrIdx], 2)
	assert.True(t, inst.Avail[hrIdx][0].Start < inst.Avail[hrIdx][1].Start)
}

func TestBuild_NoLunchPanel(t *testing.T) {
	cfg := canonicalConfig()
	delete(cfg.Panels, "Lunch")
	delete(cfg.Availabilities, "Lunch")
	inst, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, -1, inst.LunchIndex)
}
