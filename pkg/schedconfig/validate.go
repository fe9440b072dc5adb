package schedconfig

import (
	"fmt"
	"sort"

	"github.com/ariera/interviews-scheduler/pkg/schedtime"
)

// Validate performs the structural, referential, and semantic checks
// that struct tags cannot express, accumulating every defect found
// rather than stopping at the first.
func Validate(c *Config) error {
	errs := &ConfigErrors{}

	if len(c.Panels) == 0 {
		errs.Add(&ConfigError{Kind: "MissingField", Field: "panels", Expected: "a non-empty mapping of panel name to duration"})
	}

	panelDurations, durErrs := ParsePanelDurations(c.Panels)
	errs.Errors = append(errs.Errors, durErrs...)

	startMin, err := schedtime.ParseTime(c.StartTime)
	if err != nil {
		errs.Add(&ConfigError{Kind: "BadTimeFormat", Field: "start_time", Cause: err})
	}
	endMin, err := schedtime.ParseTime(c.EndTime)
	if err != nil {
		errs.Add(&ConfigError{Kind: "BadTimeFormat", Field: "end_time", Cause: err})
	}
	if err == nil && startMin >= 0 {
		if endMin <= startMin {
			errs.Add(&ConfigError{Kind: "BadWindow", Field: "end_time", Expected: "end_time strictly after start_time"})
		}
	}

	if c.SlotDurationMinutes < 1 {
		errs.Add(&ConfigError{Kind: "InvalidSlotDuration", Field: "slot_duration_minutes", Expected: "an integer >= 1"})
	}
	if c.MaxGapMinutes != nil && *c.MaxGapMinutes < 0 {
		errs.Add(&ConfigError{Kind: "InvalidMaxGap", Field: "max_gap_minutes", Expected: "an integer >= 0"})
	}

	// Alignment of day boundaries and panel durations to the slot grid.
	if c.SlotDurationMinutes >= 1 {
		if _, err := schedtime.ToSlots(startMin, c.SlotDurationMinutes); err != nil {
			errs.Add(&ConfigError{Kind: "UnalignedBoundary", Field: "start_time", Cause: err})
		}
		if _, err := schedtime.ToSlots(endMin, c.SlotDurationMinutes); err != nil {
			errs.Add(&ConfigError{Kind: "UnalignedBoundary", Field: "end_time", Cause: err})
		}
		for name, minutes := range panelDurations {
			if _, err := schedtime.ToSlots(minutes, c.SlotDurationMinutes); err != nil {
				errs.Add(&ConfigError{Kind: "UnalignedBoundary", Field: "panels." + name, Cause: err})
			}
		}
	}

	// order: only known panels, no duplicates.
	seenOrder := make(map[string]bool, len(c.Order))
	for _, name := range c.Order {
		if _, ok := c.Panels[name]; !ok {
			errs.Add(&ConfigError{Kind: "UnknownPanelReference", Field: "order", Expected: fmt.Sprintf("a panel declared in panels (got %q)", name)})
			continue
		}
		if seenOrder[name] {
			errs.Add(&ConfigError{Kind: "DuplicateInOrder", Field: "order", Expected: fmt.Sprintf("each panel to appear at most once (duplicate %q)", name)})
		}
		seenOrder[name] = true
	}

	// availabilities: every key a known panel; every window parseable and
	// aligned; every interval long enough for at least one session.
	for name, raw := range c.Availabilities {
		if _, ok := c.Panels[name]; !ok {
			errs.Add(&ConfigError{Kind: "UnknownPanelReference", Field: "availabilities", Expected: fmt.Sprintf("a panel declared in panels (got %q)", name)})
			continue
		}
		windows, werrs := ParseWindowSpec(raw, "availabilities."+name)
		errs.Errors = append(errs.Errors, werrs...)

		dur, haveDur := panelDurations[name]
		for _, w := range windows {
			if c.SlotDurationMinutes >= 1 {
				if _, err := schedtime.ToSlots(w.Start, c.SlotDurationMinutes); err != nil {
					errs.Add(&ConfigError{Kind: "UnalignedBoundary", Field: "availabilities." + name, Cause: err})
				}
				if _, err := schedtime.ToSlots(w.End, c.SlotDurationMinutes); err != nil {
					errs.Add(&ConfigError{Kind: "UnalignedBoundary", Field: "availabilities." + name, Cause: err})
				}
			}
			if haveDur && w.End-w.Start < dur {
				errs.Add(&ConfigError{Kind: "WindowTooShort", Field: "availabilities." + name, Expected: fmt.Sprintf("an interval >= panel duration (%d min)", dur)})
			}
		}
	}
	for name := range c.Panels {
		if _, ok := c.Availabilities[name]; !ok {
			errs.Add(&ConfigError{Kind: "MissingAvailability", Field: "availabilities", Expected: fmt.Sprintf("an availability entry for panel %q", name)})
		}
	}

	// position_constraints: values "first"/"last"/int in [0, |panels|).
	numPanels := len(c.Panels)
	for name, raw := range c.PositionConstraints {
		if _, ok := c.Panels[name]; !ok {
			errs.Add(&ConfigError{Kind: "UnknownPanelReference", Field: "position_constraints", Expected: fmt.Sprintf("a panel declared in panels (got %q)", name)})
			continue
		}
		if _, err := ParsePositionValue(raw, numPanels); err != nil {
			errs.Add(&ConfigError{Kind: "InvalidPosition", Field: "position_constraints." + name, Cause: err})
		}
	}

	// panel_conflicts: tuples of 2+ distinct declared panel names.
	for i, group := range c.PanelConflicts {
		field := fmt.Sprintf("panel_conflicts[%d]", i)
		if len(group) < 2 {
			errs.Add(&ConfigError{Kind: "InvalidConflictGroup", Field: field, Expected: "2 or more panel names"})
			continue
		}
		seen := make(map[string]bool, len(group))
		for _, name := range group {
			if _, ok := c.Panels[name]; !ok {
				errs.Add(&ConfigError{Kind: "UnknownPanelReference", Field: field, Expected: fmt.Sprintf("a panel declared in panels (got %q)", name)})
				continue
			}
			if seen[name] {
				errs.Add(&ConfigError{Kind: "InvalidConflictGroup", Field: field, Expected: fmt.Sprintf("distinct panel names (duplicate %q)", name)})
			}
			seen[name] = true
		}
	}

	return errs.AsConfigErrors()
}

// ParsePanelDurations normalizes every panel's declared duration to
// minutes, reporting a BadDuration ConfigError per panel that fails.
func ParsePanelDurations(panels map[string]any) (map[string]int, []*ConfigError) {
	out := make(map[string]int, len(panels))
	var errs []*ConfigError
	for name, raw := range panels {
		minutes, err := schedtime.ParseDuration(raw)
		if err != nil {
			errs = append(errs, &ConfigError{Kind: "BadDuration", Field: "panels." + name, Cause: err})
			continue
		}
		out[name] = minutes
	}
	return out, errs
}

// ParseWindowSpec accepts either a single "HH:MM-HH:MM" string or a list
// of such strings.
func ParseWindowSpec(raw any, field string) ([]schedtime.Window, []*ConfigError) {
	var specs []string
	switch v := raw.(type) {
	case string:
		specs = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, []*ConfigError{{Kind: "BadWindow", Field: field, Expected: "a window string or list of window strings"}}
			}
			specs = append(specs, s)
		}
	case []string:
		specs = v
	default:
		return nil, []*ConfigError{{Kind: "BadWindow", Field: field, Expected: "a window string or list of window strings"}}
	}

	var windows []schedtime.Window
	var errs []*ConfigError
	for _, s := range specs {
		w, err := schedtime.ParseWindow(s)
		if err != nil {
			errs = append(errs, &ConfigError{Kind: "BadWindow", Field: field, Cause: err})
			continue
		}
		windows = append(windows, w)
	}
	return windows, errs
}

// ParsePositionValue normalizes a raw YAML position_constraints value to
// a PositionValue, canonicalizing to 0-based ranks.
func ParsePositionValue(raw any, numPanels int) (PositionValue, error) {
	switch v := raw.(type) {
	case string:
		switch v {
		case "first":
			return PositionValue{First: true}, nil
		case "last":
			return PositionValue{Last: true}, nil
		default:
			return PositionValue{}, fmt.Errorf(`expected "first", "last", or an integer, got %q`, v)
		}
	case int:
		if v < 0 || v >= numPanels {
			return PositionValue{}, fmt.Errorf("expected an integer in [0, %d), got %d", numPanels, v)
		}
		return PositionValue{Abs: v}, nil
	case float64:
		if v != float64(int(v)) {
			return PositionValue{}, fmt.Errorf("expected an integer, got %v", v)
		}
		return ParsePositionValue(int(v), numPanels)
	default:
		return PositionValue{}, fmt.Errorf(`expected "first", "last", or an integer, got %v`, v)
	}
}

// SortedPanelNames returns the config's panel names in a deterministic
// order, used to intern panels into stable indices.
func SortedPanelNames(c *Config) []string {
	names := make([]string, 0, len(c.Panels))
	for name := range c.Panels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
