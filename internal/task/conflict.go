package task

import "sort"

// Conflicts returns the ids of tasks that overlap another task on the same day.
// Tasks are grouped by day, sorted by start, and swept once while tracking the
// end of the running open interval. Touching blocks do not conflict.
func Conflicts(tasks []Task) map[string]bool {
	conflicts := make(map[string]bool)

	byDay := make(map[int][]Task)
	for _, t := range tasks {
		byDay[t.DayIndex] = append(byDay[t.DayIndex], t)
	}

	for _, day := range byDay {
		if len(day) < 2 {
			continue
		}
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].StartMinutes() < day[j].StartMinutes()
		})

		open := day[0]
		openEnd := open.EndMinutes()
		for _, t := range day[1:] {
			if t.StartMinutes() < openEnd {
				conflicts[open.ID] = true
				conflicts[t.ID] = true
			}
			if end := t.EndMinutes(); end > openEnd {
				open = t
				openEnd = end
			}
		}
	}

	return conflicts
}
