// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package period resolves which time window applies to each entity of an
// analysis. A plan is either shared (one window for every entity) or custom
// (one window per entity); the two are never mixed.
// Implements: docs/ARCHITECTURE § Periods.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

// DefaultTimezone is the zone for dates given without an offset.
const DefaultTimezone = "America/Sao_Paulo"

var (
	// ErrNoEntities is returned for a plan without entities.
	ErrNoEntities = errors.New("analysis has no entities")

	// ErrInvalidWindow is returned for a window that is empty, reversed or
	// not yet closed.
	ErrInvalidWindow = errors.New("invalid analysis window")

	// ErrAmbiguousRequest is returned when a request gives both a shared
	// window and custom windows, or neither.
	ErrAmbiguousRequest = errors.New("request must give either a shared window or custom windows")
)

// Plan maps entities to analysis windows.
type Plan struct {
	custom  bool
	windows []types.EntityWindow
}

// Shared builds a plan analyzing every entity over the same window.
func Shared(entityIDs []string, w types.Window) Plan {
	p := Plan{windows: make([]types.EntityWindow, len(entityIDs))}
	for i, id := range entityIDs {
		p.windows[i] = types.EntityWindow{EntityID: id, Window: w}
	}
	return p
}

// Custom builds a plan with a window per entity.
func Custom(windows []types.EntityWindow) Plan {
	return Plan{custom: true, windows: append([]types.EntityWindow(nil), windows...)}
}

// Request is the caller-facing form of a plan, as read from flags or a
// periods file.
type Request struct {
	EntityIDs []string             `yaml:"entities,omitempty"`
	Window    *types.Window        `yaml:"window,omitempty"`
	Custom    []types.EntityWindow `yaml:"custom,omitempty"`
}

// FromRequest builds a plan from exactly one of a shared window with its
// entities or a list of custom windows.
func FromRequest(r Request) (Plan, error) {
	shared := r.Window != nil || len(r.EntityIDs) > 0
	custom := len(r.Custom) > 0
	switch {
	case shared && custom, !shared && !custom:
		return Plan{}, ErrAmbiguousRequest
	case custom:
		return Custom(r.Custom), nil
	case r.Window == nil:
		return Plan{}, fmt.Errorf("%w: shared plan needs a window", ErrInvalidWindow)
	default:
		return Shared(r.EntityIDs, *r.Window), nil
	}
}

// Custom reports whether entities have their own windows.
func (p Plan) Custom() bool {
	return p.custom
}

// Windows returns the entity windows in plan order.
func (p Plan) Windows() []types.EntityWindow {
	return p.windows
}

// EntityIDs returns the planned entities in plan order.
func (p Plan) EntityIDs() []string {
	ids := make([]string, len(p.windows))
	for i, ew := range p.windows {
		ids[i] = ew.EntityID
	}
	return ids
}

// WindowFor returns the window of entity id.
func (p Plan) WindowFor(id string) (types.Window, bool) {
	for _, ew := range p.windows {
		if ew.EntityID == id {
			return ew.Window, true
		}
	}
	return types.Window{}, false
}

// Bounds returns the smallest window covering every entity window.
func (p Plan) Bounds() types.Window {
	var b types.Window
	for i, ew := range p.windows {
		if i == 0 || ew.Window.Start.Before(b.Start) {
			b.Start = ew.Window.Start
		}
		if i == 0 || ew.Window.End.After(b.End) {
			b.End = ew.Window.End
		}
	}
	return b
}

// Validate checks the plan against now: at least one entity, every window
// with Start before End and End before now, no entity listed twice.
func (p Plan) Validate(now time.Time) error {
	if len(p.windows) == 0 {
		return ErrNoEntities
	}
	seen := make(map[string]bool, len(p.windows))
	for _, ew := range p.windows {
		if strings.TrimSpace(ew.EntityID) == "" {
			return fmt.Errorf("%w: empty entity id", ErrNoEntities)
		}
		if seen[ew.EntityID] {
			return fmt.Errorf("entity %s listed twice: %w", ew.EntityID, ErrInvalidWindow)
		}
		seen[ew.EntityID] = true

		if err := ValidateWindow(ew.Window, now); err != nil {
			return fmt.Errorf("entity %s: %w", ew.EntityID, err)
		}
	}
	return nil
}

// ValidateWindow checks that w has both bounds, Start before End, and End
// before now.
func ValidateWindow(w types.Window, now time.Time) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("missing start or end: %w", ErrInvalidWindow)
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("start %s is not before end %s: %w",
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), ErrInvalidWindow)
	}
	if !w.End.Before(now) {
		return fmt.Errorf("end %s is not in the past: %w", w.End.Format(time.RFC3339), ErrInvalidWindow)
	}
	return nil
}

// LoadLocation returns the named zone, DefaultTimezone when name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", name, err)
	}
	return loc, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an analysis boundary. RFC3339 values keep their offset;
// values without one are read in loc (UTC when nil).
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing time %q: %w", s, ErrInvalidWindow)
}

// EndOfDay extends a date-only end boundary to the last instant of that day,
// so that "--end 2024-10-31" covers the whole day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_999_999, t.Location())
}
