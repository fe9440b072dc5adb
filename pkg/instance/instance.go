// Package instance builds the immutable, integer-indexed Instance that
// every downstream component (model builder, solver driver, extractor)
// operates on. Nothing outside pkg/schedconfig ever sees a panel name as
// a loose string or a time as raw minutes again.
package instance

import (
	"fmt"
	"sort"

	"github.com/ariera/interviews-scheduler/pkg/schedconfig"
	"github.com/ariera/interviews-scheduler/pkg/schedtime"
)

// lunchPanelName is the distinguished panel treated as having unlimited
// capacity: unlimited capacity applies only to the panel literally
// named "Lunch", never to any other panel by name pattern or position.
const lunchPanelName = "Lunch"

// Unlimited is the capacity value for panels exempt from the
// single-occupancy constraint (Lunch only).
const Unlimited = 0

// PositionKind distinguishes the three shapes a position constraint can
// take.
type PositionKind int

const (
	PositionFirst PositionKind = iota
	PositionLast
	PositionAbs
)

// PositionConstraint pins a panel to a specific chronological rank
// (0-based) in every candidate's sequence.
type PositionConstraint struct {
	Kind PositionKind
	Abs  int // meaningful only when Kind == PositionAbs
}

// Window is a half-open slot interval [Start, End).
type Window struct {
	Start int
	End   int
}

// Panel is a single interview activity, interned to an integer index at
// construction time.
type Panel struct {
	Name          string
	DurationSlots int
	Capacity      int // Unlimited (0) for Lunch, 1 for everything else
}

// InstanceError reports an internal inconsistency discovered while
// building the canonical Instance from an already-validated Config.
// This should never occur once Validate has passed; its presence here
// is a defensive backstop, not a substitute for config validation.
type InstanceError struct {
	Reason string
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("instance build error: %s", e.Reason)
}

// Instance is the immutable, time-indexed scheduling problem. Every
// field uses slot indices and panel indices, never raw minutes or
// panel names.
type Instance struct {
	SlotMinutes  int
	HorizonSlots int
	NumCandidates int

	// DayStartMinutes is start_time expressed as minutes from midnight.
	// Every other time value in the Instance is a slot offset relative
	// to this; only the extractor needs it, to format sessions back to
	// wall-clock "HH:MM" strings.
	DayStartMinutes int

	Panels     []Panel
	PanelIndex map[string]int

	// Avail[p] is the ordered list of disjoint availability windows (in
	// slots, relative to the day window) for panel p.
	Avail [][]Window

	// PreferredOrder lists panel indices in the soft preferred order,
	// skipping panels absent from the config's `order` list.
	PreferredOrder []int

	// PositionConstraints maps panel index to its hard position
	// constraint.
	PositionConstraints map[int]PositionConstraint

	// ConflictGroups lists sets of panel indices that may never run
	// concurrently across any candidates.
	ConflictGroups [][]int

	MaxGapSlots int

	// LunchIndex is the panel index of the distinguished unlimited-
	// capacity panel, or -1 if no panel is named "Lunch".
	LunchIndex int
}

// Build normalizes an already-validated Config into an Instance. Callers
// must have run schedconfig.Validate (or schedconfig.Parse/Load, which
// do so internally) first; Build does not re-run semantic validation,
// but defends against internal inconsistency with InstanceError.
func Build(cfg *schedconfig.Config) (*Instance, error) {
	startMin, err := schedtime.ParseTime(cfg.StartTime)
	if err != nil {
		return nil, &InstanceError{Reason: fmt.Sprintf("start_time: %v", err)}
	}
	endMin, err := schedtime.ParseTime(cfg.EndTime)
	if err != nil {
		return nil, &InstanceError{Reason: fmt.Sprintf("end_time: %v", err)}
	}
	horizonMinutes := endMin - startMin
	if horizonMinutes <= 0 {
		return nil, &InstanceError{Reason: "end_time must be after start_time"}
	}
	horizonSlots, err := schedtime.ToSlots(horizonMinutes, cfg.SlotDurationMinutes)
	if err != nil {
		return nil, &InstanceError{Reason: fmt.Sprintf("day window: %v", err)}
	}

	durations, durErrs := schedconfig.ParsePanelDurations(cfg.Panels)
	if len(durErrs) > 0 {
		return nil, &InstanceError{Reason: fmt.Sprintf("panel durations: %v", durErrs[0])}
	}

	names := schedconfig.SortedPanelNames(cfg)
	panels := make([]Panel, len(names))
	panelIndex := make(map[string]int, len(names))
	lunchIndex := -1
	for i, name := range names {
		minutes := durations[name]
		durSlots, err := schedtime.ToSlots(minutes, cfg.SlotDurationMinutes)
		if err != nil {
			return nil, &InstanceError{Reason: fmt.Sprintf("panel %q duration: %v", name, err)}
		}
		capacity := 1
		if name == lunchPanelName {
			capacity = Unlimited
			lunchIndex = i
		}
		panels[i] = Panel{Name: name, DurationSlots: durSlots, Capacity: capacity}
		panelIndex[name] = i
	}

	avail := make([][]Window, len(panels))
	for name, raw := range cfg.Availabilities {
		idx, ok := panelIndex[name]
		if !ok {
			return nil, &InstanceError{Reason: fmt.Sprintf("availability references unknown panel %q", name)}
		}
		windows, werrs := schedconfig.ParseWindowSpec(raw, "availabilities."+name)
		if len(werrs) > 0 {
			return nil, &InstanceError{Reason: fmt.Sprintf("availability %q: %v", name, werrs[0])}
		}
		slotWindows := make([]Window, 0, len(windows))
		for _, w := range windows {
			loMin := w.Start - startMin
			hiMin := w.End - startMin
			if loMin < 0 {
				loMin = 0
			}
			if hiMin > horizonMinutes {
				hiMin = horizonMinutes
			}
			loSlot, err := schedtime.ToSlots(loMin, cfg.SlotDurationMinutes)
			if err != nil {
				return nil, &InstanceError{Reason: fmt.Sprintf("availability %q window start: %v", name, err)}
			}
			hiSlot, err := schedtime.ToSlots(hiMin, cfg.SlotDurationMinutes)
			if err != nil {
				return nil, &InstanceError{Reason: fmt.Sprintf("availability %q window end: %v", name, err)}
			}
			if hiSlot <= loSlot {
				continue
			}
			slotWindows = append(slotWindows, Window{Start: loSlot, End: hiSlot})
		}
		sort.Slice(slotWindows, func(i, j int) bool { return slotWindows[i].Start < slotWindows[j].Start })
		avail[idx] = slotWindows
	}

	preferredOrder := make([]int, 0, len(cfg.Order))
	for _, name := range cfg.Order {
		idx, ok := panelIndex[name]
		if !ok {
			return nil, &InstanceError{Reason: fmt.Sprintf("order references unknown panel %q", name)}
		}
		preferredOrder = append(preferredOrder, idx)
	}

	positionConstraints := make(map[int]PositionConstraint, len(cfg.PositionConstraints))
	for name, raw := range cfg.PositionConstraints {
		idx, ok := panelIndex[name]
		if !ok {
			return nil, &InstanceError{Reason: fmt.Sprintf("position_constraints references unknown panel %q", name)}
		}
		pv, err := schedconfig.ParsePositionValue(raw, len(panels))
		if err != nil {
			return nil, &InstanceError{Reason: fmt.Sprintf("position_constraints %q: %v", name, err)}
		}
		switch {
		case pv.First:
			positionConstraints[idx] = PositionConstraint{Kind: PositionFirst}
		case pv.Last:
			positionConstraints[idx] = PositionConstraint{Kind: PositionLast}
		default:
			positionConstraints[idx] = PositionConstraint{Kind: PositionAbs, Abs: pv.Abs}
		}
	}

	conflictGroups := make([][]int, 0, len(cfg.PanelConflicts))
	for _, group := range cfg.PanelConflicts {
		idxGroup := make([]int, 0, len(group))
		for _, name := range group {
			idx, ok := panelIndex[name]
			if !ok {
				return nil, &InstanceError{Reason: fmt.Sprintf("panel_conflicts references unknown panel %q", name)}
			}
			idxGroup = append(idxGroup, idx)
		}
		conflictGroups = append(conflictGroups, idxGroup)
	}

	// cfg.MaxGapMinutes is resolved by schedconfig.Parse's applyDefaults
	// before an Instance is ever built from it; nil only if a caller
	// constructs a Config by hand and skips Parse, in which case 0 (no
	// gap tolerance) is the safer reading than silently assuming 15.
	var maxGapMinutes int
	if cfg.MaxGapMinutes != nil {
		maxGapMinutes = *cfg.MaxGapMinutes
	}
	maxGapSlots := schedtime.CeilDiv(maxGapMinutes, cfg.SlotDurationMinutes)

	return &Instance{
		SlotMinutes:         cfg.SlotDurationMinutes,
		HorizonSlots:        horizonSlots,
		NumCandidates:       cfg.NumCandidates,
		DayStartMinutes:     startMin,
		Panels:              panels,
		PanelIndex:          panelIndex,
		Avail:               avail,
		PreferredOrder:      preferredOrder,
		PositionConstraints: positionConstraints,
		ConflictGroups:      conflictGroups,
		MaxGapSlots:         maxGapSlots,
		LunchIndex:          lunchIndex,
	}, nil
}

// NumPanels returns the number of panels in the instance.
func (inst *Instance) NumPanels() int { return len(inst.Panels) }
