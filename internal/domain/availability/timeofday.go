package availability

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/estatehub/service-scheduling/internal/platform/domain"
)

var hhmm = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// TimeOfDay is a wall-clock time expressed as minutes since local midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := hhmm.FindStringSubmatch(s)
	if m == nil {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid time %q: expected HH:MM", s))
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return TimeOfDay(h*60 + min), nil
}

// TimeOfDayOf returns the wall-clock reading of t in its own location as an
// offset from 00:00. It reads the clock fields rather than measuring elapsed
// time, so days with a DST change still map 09:00 to 9h.
// Seconds are kept so that 10:59:30 is before 11:00.
func TimeOfDayOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
