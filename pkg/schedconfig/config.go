// Package schedconfig parses and validates the declarative interview-day
// configuration document before anything downstream ever builds a
// solver model from it.
package schedconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PositionValue is "first", "last", or a non-negative 0-based integer
// rank within a candidate's chronological sequence.
type PositionValue struct {
	First bool
	Last  bool
	Abs   int // valid only if !First && !Last
}

// Config is the recognized shape of the scheduling configuration
// document. Unrecognized keys are rejected by Parse via a strict
// yaml.Decoder (KnownFields(true)).
type Config struct {
	NumCandidates int `yaml:"num_candidates" validate:"required,min=1"`

	// Panels maps panel name to a duration (int minutes, or a string like
	// "1h30min"); kept as raw values here, normalized in Validate.
	Panels map[string]any `yaml:"panels" validate:"required"`

	// Order is the soft preferred panel ordering; duplicates are rejected.
	Order []string `yaml:"order"`

	// Availabilities maps panel name to a window string or list of window
	// strings ("HH:MM-HH:MM").
	Availabilities map[string]any `yaml:"availabilities" validate:"required"`

	StartTime           string `yaml:"start_time"`
	EndTime              string `yaml:"end_time"`
	SlotDurationMinutes int    `yaml:"slot_duration_minutes"`

	// MaxGapMinutes is a pointer so an explicit "max_gap_minutes: 0" in
	// the document (a valid, deliberately tight value) is distinguished
	// from the key being absent; only absence gets defaultMaxGapMinutes.
	MaxGapMinutes *int `yaml:"max_gap_minutes"`

	// PositionConstraints maps panel name to "first", "last", or a
	// non-negative integer.
	PositionConstraints map[string]any `yaml:"position_constraints,omitempty"`

	// PanelConflicts lists groups of 2+ panel names that cannot run
	// concurrently across any candidates.
	PanelConflicts [][]string `yaml:"panel_conflicts,omitempty"`
}

const (
	defaultStartTime           = "08:30"
	defaultEndTime              = "17:00"
	defaultSlotDurationMinutes = 15
	defaultMaxGapMinutes       = 15
)

var validate = validator.New()

// applyDefaults fills in the optional fields that were left unset in
// the document.
func (c *Config) applyDefaults() {
	if c.StartTime == "" {
		c.StartTime = defaultStartTime
	}
	if c.EndTime == "" {
		c.EndTime = defaultEndTime
	}
	if c.SlotDurationMinutes == 0 {
		c.SlotDurationMinutes = defaultSlotDurationMinutes
	}
	if c.MaxGapMinutes == nil {
		d := defaultMaxGapMinutes
		c.MaxGapMinutes = &d
	}
}

// Load reads and validates a scheduling configuration document from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse validates and returns the Config encoded in data. Decoding is
// strict: a key not named by Config's yaml tags is a parse error, not a
// silently dropped field.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
