package schedconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		NumCandidates: 2,
		Panels: map[string]any{
			"Technical": 45,
			"HR":        30,
		},
		Order: []string{"Technical", "HR"},
		Availabilities: map[string]any{
			"Technical": "09:00-17:00",
			"HR":        "09:00-17:00",
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_CanonicalInstance(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, Validate(cfg))
}

func TestValidate_UnknownPanelInOrder(t *testing.T) {
	cfg := validConfig()
	cfg.Order = append(cfg.Order, "Nonexistent")
	err := Validate(cfg)
	require.Error(t, err)
	var cerrs *ConfigErrors
	require.ErrorAs(t, err, &cerrs)
	found := false
	for _, e := range cerrs.Errors {
		if e.Kind == "UnknownPanelReference" && e.Field == "order" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_DuplicateInOrder(t *testing.T) {
	cfg := validConfig()
	cfg.Order = []string{"Technical", "Technical", "HR"}
	err := Validate(cfg)
	require.Error(t, err)
	var cerrs *ConfigErrors
	require.ErrorAs(t, err, &cerrs)
	found := false
	for _, e := range cerrs.Errors {
		if e.Kind == "DuplicateInOrder" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_MissingAvailability(t *testing.T) {
	cfg := validConfig()
	delete(cfg.Availabilities, "HR")
	err := Validate(cfg)
	require.Error(t, err)
	var cerrs *ConfigErrors
	require.ErrorAs(t, err, &cerrs)
	found := false
	for _, e := range cerrs.Errors {
		if e.Kind == "MissingAvailability" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_UnalignedBoundary(t *testing.T) {
	cfg := validConfig()
	cfg.Panels["Weird"] = 7
	cfg.Availabilities["Weird"] = "09:00-17:00"
	err := Validate(cfg)
	require.Error(t, err)
	var cerrs *ConfigErrors
	require.ErrorAs(t, err, &cerrs)
	found := false
	for _, e := range cerrs.Errors {
		if e.Kind == "UnalignedBoundary" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_WindowTooShortForDuration(t *testing.T) {
	cfg := validConfig()
	cfg.Panels["Director"] = 60
	cfg.Availabilities["Director"] = "09:00-09:30"
	err := Validate(cfg)
	require.Error(t, err)
	var cerrs *ConfigErrors
	require.ErrorAs(t, err, &cerrs)
	found := false
	for _, e := range cerrs.Errors {
		if e.Kind == "WindowTooShort" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_PositionConstraintValues(t *testing.T) {
	cfg := validConfig()
	cfg.PositionConstraints = map[string]any{"Technical": "last"}
	assert.NoError(t, Validate(cfg))

	cfg.PositionConstraints = map[string]any{"Technical": 1}
	assert.NoError(t, Validate(cfg))

	cfg.PositionConstraints = map[string]any{"Technical": 99}
	assert.Error(t, Validate(cfg))

	cfg.PositionConstraints = map[string]any{"Technical": "sideways"}
	assert.Error(t, Validate(cfg))
}

func TestValidate_PanelConflictsRequireTwoDistinctKnownPanels(t *testing.T) {
	cfg := validConfig()
	cfg.PanelConflicts = [][]string{{"Technical"}}
	assert.Error(t, Validate(cfg))

	cfg.PanelConflicts = [][]string{{"Technical", "Technical"}}
	assert.Error(t, Validate(cfg))

	cfg.PanelConflicts = [][]string{{"Technical", "Ghost"}}
	assert.Error(t, Validate(cfg))

	cfg.PanelConflicts = [][]string{{"Technical", "HR"}}
	assert.NoError(t, Validate(cfg))
}

func TestParse_RejectsBadDuration(t *testing.T) {
	yamlDoc := []byte(`
num_candidates: 1
panels:
  Technical: "30xyz"
order: []
availabilities:
  Technical: "09:00-10:00"
`)
	_, err := Parse(yamlDoc)
	assert.Error(t, err)
}

func TestParse_RejectsUnknownTopLevelKey(t *testing.T) {
	yamlDoc := []byte(`
num_candidates: 1
panels:
  Technical: 45
order: []
availabilities:
  Technical: "09:00-17:00"
typo_field: true
`)
	_, err := Parse(yamlDoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typo_field")
}

func TestParse_AppliesDefaults(t *testing.T) {
	yamlDoc := []byte(`
num_candidates: 1
panels:
  Technical: 45
order: []
availabilities:
  Technical: "09:00-17:00"
`)
	cfg, err := Parse(yamlDoc)
	require.NoError(t, err)
	assert.Equal(t, defaultStartTime, cfg.StartTime)
	assert.Equal(t, defaultEndTime, cfg.EndTime)
	assert.Equal(t, defaultSlotDurationMinutes, cfg.SlotDurationMinutes)
	require.NotNil(t, cfg.MaxGapMinutes)
	assert.Equal(t, defaultMaxGapMinutes, *cfg.MaxGapMinutes)
}

func TestParse_PreservesExplicitZeroMaxGap(t *testing.T) {
	yamlDoc := []byte(`
num_candidates: 1
panels:
  Technical: 45
order: []
availabilities:
  Technical: "09:00-17:00"
max_gap_minutes: 0
`)
	cfg, err := Parse(yamlDoc)
	require.NoError(t, err)
	require.NotNil(t, cfg.MaxGapMinutes)
	assert.Equal(t, 0, *cfg.MaxGapMinutes)
}
