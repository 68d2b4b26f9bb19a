package availability

import (
	"time"
)

// scanHorizonDays is how far ahead ComputeCurrentStatus looks for a slot.
const scanHorizonDays = 7

// DayEntry lists the windows configured for one weekday.
type DayEntry struct {
	DayOfWeek time.Weekday
	Windows   []*Window
}

// NextSlot is the next start of working hours after a given instant.
type NextSlot struct {
	DayOffset int
	DayOfWeek time.Weekday
	StartTime TimeOfDay
}

// CurrentStatus describes a provider's availability at an instant.
type CurrentStatus struct {
	AvailableNow bool
	Next         *NextSlot
}

// BuildWeeklySchedule groups windows by weekday, Sunday first.
func BuildWeeklySchedule(windows []*Window) [7]DayEntry {
	var week [7]DayEntry
	for d := range week {
		week[d] = DayEntry{DayOfWeek: time.Weekday(d), Windows: []*Window{}}
	}
	for _, w := range windows {
		d := int(w.dayOfWeek)
		if d < 0 || d > 6 {
			continue
		}
		week[d].Windows = append(week[d].Windows, w)
	}
	return week
}

// CoveredBy reports whether any window covers [start, start+d).
func CoveredBy(windows []*Window, start time.Time, d time.Duration) bool {
	for _, w := range windows {
		if w.Covers(start, d) {
			return true
		}
	}
	return false
}

// ComputeCurrentStatus reports whether a provider is working at now and,
// if not, when their next slot begins. Inside a break the next slot is
// the end of the break. Days are scanned from today up to one week ahead.
func ComputeCurrentStatus(windows []*Window, now time.Time) CurrentStatus {
	for _, w := range windows {
		if w.AvailableAt(now) {
			return CurrentStatus{AvailableNow: true}
		}
	}

	var best *NextSlot
	for offset := 0; offset <= scanHorizonDays; offset++ {
		for _, w := range windows {
			if !w.isAvailable {
				continue
			}
			local := now.In(w.Location())
			if (int(local.Weekday())+offset)%7 != int(w.dayOfWeek) {
				continue
			}

			var start TimeOfDay
			switch {
			case offset > 0:
				start = w.start
			case TimeOfDayOf(local) < w.start.Duration():
				start = w.start
			case w.inBreak(TimeOfDayOf(local)):
				start = *w.breakEnd
			default:
				continue
			}

			if best == nil || start < best.StartTime {
				best = &NextSlot{DayOffset: offset, DayOfWeek: w.dayOfWeek, StartTime: start}
			}
		}
		if best != nil {
			return CurrentStatus{Next: best}
		}
	}
	return CurrentStatus{}
}
