package reservation

import "github.com/example/tablebook/internal/timeslot"

// ClosestSlot returns the available slot nearest to requested. Ties go to
// the earlier slot. With nothing available it reports false.
func ClosestSlot(requested timeslot.Time, available []timeslot.Time) (timeslot.Time, bool) {
	if len(available) == 0 {
		return 0, false
	}
	best := available[0]
	bestDist := distance(requested, best)
	for _, s := range available[1:] {
		d := distance(requested, s)
		if d < bestDist || (d == bestDist && s < best) {
			best, bestDist = s, d
		}
	}
	return best, true
}

func distance(a, b timeslot.Time) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
