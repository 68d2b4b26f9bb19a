package booking

// FilterConflicts returns the bookings in existing that block candidate.
// Terminal bookings never conflict.
func FilterConflicts(existing []*Booking, candidate Interval) []*Booking {
	var conflicts []*Booking
	for _, b := range existing {
		if b.Blocks() && b.interval.Overlaps(candidate) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}
