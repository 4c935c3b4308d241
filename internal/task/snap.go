package task

import "sort"

// SnapIndex answers "which existing edge is close to this minute" for one
// collection of tasks. It is rebuilt whenever the collection changes.
type SnapIndex struct {
	byDay map[int][]Task
}

// NewSnapIndex indexes the tasks by day.
func NewSnapIndex(tasks []Task) *SnapIndex {
	idx := &SnapIndex{byDay: make(map[int][]Task)}
	for _, t := range tasks {
		idx.byDay[t.DayIndex] = append(idx.byDay[t.DayIndex], t)
	}
	return idx
}

// Boundaries returns the sorted, de-duplicated start and end minutes of the
// tasks on day, skipping the excluded ids.
func (s *SnapIndex) Boundaries(day int, exclude ...string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, t := range s.byDay[day] {
		if contains(exclude, t.ID) {
			continue
		}
		for _, m := range [2]int{t.StartMinutes(), t.EndMinutes()} {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Ints(out)
	return out
}

// Snap returns the boundary nearest to minutes when it lies within
// SnapThreshold. Ties go to the earlier boundary.
func (s *SnapIndex) Snap(day, minutes int, exclude ...string) (int, bool) {
	best, bestDist := 0, SnapThreshold+1
	for _, b := range s.Boundaries(day, exclude...) {
		d := b - minutes
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	if bestDist > SnapThreshold {
		return 0, false
	}
	return best, true
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
