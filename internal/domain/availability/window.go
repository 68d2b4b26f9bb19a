package availability

import (
	"fmt"
	"time"
	_ "time/tzdata" // windows carry IANA names; hosts may lack a zoneinfo database

	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
)

// DefaultTimezone applies when a window is saved without one.
const DefaultTimezone = "Africa/Cairo"

// WindowSpec is the unvalidated input for a window.
type WindowSpec struct {
	StartTime   string
	EndTime     string
	BreakStart  string
	BreakEnd    string
	IsAvailable bool
	Timezone    string
}

// Window is a provider's recurring working hours for one day of the week.
type Window struct {
	id          uuid.UUID
	providerID  uuid.UUID
	dayOfWeek   time.Weekday
	start       TimeOfDay
	end         TimeOfDay
	breakStart  *TimeOfDay
	breakEnd    *TimeOfDay
	isAvailable bool
	timezone    string
	createdAt   time.Time
	updatedAt   time.Time
}

type parsedSpec struct {
	start, end           TimeOfDay
	breakStart, breakEnd *TimeOfDay
	timezone             string
}

func parseSpec(spec WindowSpec) (parsedSpec, error) {
	start, err := ParseTimeOfDay(spec.StartTime)
	if err != nil {
		return parsedSpec{}, err
	}
	end, err := ParseTimeOfDay(spec.EndTime)
	if err != nil {
		return parsedSpec{}, err
	}
	if start >= end {
		return parsedSpec{}, domain.NewValidationError("start_time must be before end_time")
	}

	p := parsedSpec{start: start, end: end, timezone: spec.Timezone}
	if p.timezone == "" {
		p.timezone = DefaultTimezone
	}
	if _, err := time.LoadLocation(p.timezone); err != nil {
		return parsedSpec{}, domain.NewValidationError(fmt.Sprintf("unknown timezone %q", p.timezone))
	}

	if (spec.BreakStart == "") != (spec.BreakEnd == "") {
		return parsedSpec{}, domain.NewValidationError("break_start_time and break_end_time must be given together")
	}
	if spec.BreakStart == "" {
		return p, nil
	}
	bs, err := ParseTimeOfDay(spec.BreakStart)
	if err != nil {
		return parsedSpec{}, err
	}
	be, err := ParseTimeOfDay(spec.BreakEnd)
	if err != nil {
		return parsedSpec{}, err
	}
	if bs >= be {
		return parsedSpec{}, domain.NewValidationError("break_start_time must be before break_end_time")
	}
	if bs < start || be > end {
		return parsedSpec{}, domain.NewValidationError("break must fall within working hours")
	}
	p.breakStart, p.breakEnd = &bs, &be
	return p, nil
}

// NewWindow validates spec and creates a window for dayOfWeek (0=Sunday).
func NewWindow(providerID uuid.UUID, dayOfWeek int, spec WindowSpec) (*Window, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider_id is required")
	}
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, domain.NewValidationError("day_of_week must be between 0 and 6")
	}
	p, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Window{
		id:          uuid.New(),
		providerID:  providerID,
		dayOfWeek:   time.Weekday(dayOfWeek),
		start:       p.start,
		end:         p.end,
		breakStart:  p.breakStart,
		breakEnd:    p.breakEnd,
		isAvailable: spec.IsAvailable,
		timezone:    p.timezone,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructWindow rebuilds a Window from persistence data (no validation).
func ReconstructWindow(
	id, providerID uuid.UUID,
	dayOfWeek int,
	start, end TimeOfDay,
	breakStart, breakEnd *TimeOfDay,
	isAvailable bool,
	timezone string,
	createdAt, updatedAt time.Time,
) *Window {
	return &Window{
		id:          id,
		providerID:  providerID,
		dayOfWeek:   time.Weekday(dayOfWeek),
		start:       start,
		end:         end,
		breakStart:  breakStart,
		breakEnd:    breakEnd,
		isAvailable: isAvailable,
		timezone:    timezone,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (w *Window) ID() uuid.UUID           { return w.id }
func (w *Window) ProviderID() uuid.UUID   { return w.providerID }
func (w *Window) DayOfWeek() time.Weekday { return w.dayOfWeek }
func (w *Window) Start() TimeOfDay        { return w.start }
func (w *Window) End() TimeOfDay          { return w.end }
func (w *Window) BreakStart() *TimeOfDay  { return w.breakStart }
func (w *Window) BreakEnd() *TimeOfDay    { return w.breakEnd }
func (w *Window) IsAvailable() bool       { return w.isAvailable }
func (w *Window) Timezone() string        { return w.timezone }
func (w *Window) CreatedAt() time.Time    { return w.createdAt }
func (w *Window) UpdatedAt() time.Time    { return w.updatedAt }
func (w *Window) HasBreak() bool          { return w.breakStart != nil }

// --- Behavior ---

// Replace overwrites the window's hours with spec. The window is left
// untouched when spec is invalid.
func (w *Window) Replace(spec WindowSpec) error {
	p, err := parseSpec(spec)
	if err != nil {
		return err
	}
	w.start, w.end = p.start, p.end
	w.breakStart, w.breakEnd = p.breakStart, p.breakEnd
	w.isAvailable = spec.IsAvailable
	w.timezone = p.timezone
	w.updatedAt = time.Now().UTC()
	return nil
}

// Spec returns the window's current hours as a WindowSpec.
func (w *Window) Spec() WindowSpec {
	spec := WindowSpec{
		StartTime:   w.start.String(),
		EndTime:     w.end.String(),
		IsAvailable: w.isAvailable,
		Timezone:    w.timezone,
	}
	if w.HasBreak() {
		spec.BreakStart = w.breakStart.String()
		spec.BreakEnd = w.breakEnd.String()
	}
	return spec
}

// Location resolves the window's timezone, falling back to UTC.
func (w *Window) Location() *time.Location {
	loc, err := time.LoadLocation(w.timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Covers reports whether [start, start+d) lies inside the working hours on
// the window's weekday and does not overlap the break.
func (w *Window) Covers(start time.Time, d time.Duration) bool {
	if !w.isAvailable || d <= 0 {
		return false
	}
	local := start.In(w.Location())
	if local.Weekday() != w.dayOfWeek {
		return false
	}
	from := TimeOfDayOf(local)
	end := local.Add(d)
	to := TimeOfDayOf(end)
	if y, m, day := end.Date(); y != local.Year() || m != local.Month() || day != local.Day() {
		to += 24 * time.Hour
	}
	if from < w.start.Duration() || to > w.end.Duration() {
		return false
	}
	if w.HasBreak() && from < w.breakEnd.Duration() && to > w.breakStart.Duration() {
		return false
	}
	return true
}

// AvailableAt reports whether t falls in working hours and outside the break.
func (w *Window) AvailableAt(t time.Time) bool {
	if !w.isAvailable {
		return false
	}
	local := t.In(w.Location())
	if local.Weekday() != w.dayOfWeek {
		return false
	}
	at := TimeOfDayOf(local)
	if at < w.start.Duration() || at >= w.end.Duration() {
		return false
	}
	return !w.inBreak(at)
}

func (w *Window) inBreak(at time.Duration) bool {
	return w.HasBreak() && at >= w.breakStart.Duration() && at < w.breakEnd.Duration()
}
