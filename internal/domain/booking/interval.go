package booking

import (
	"time"

	"github.com/estatehub/service-scheduling/internal/platform/domain"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the interval starting at start lasting durationMinutes.
func NewInterval(start time.Time, durationMinutes int) (Interval, error) {
	if durationMinutes <= 0 {
		return Interval{}, domain.NewValidationError("duration_minutes must be positive")
	}
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}, nil
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two ranges share any instant. Abutting
// ranges do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}
