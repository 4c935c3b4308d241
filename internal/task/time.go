package task

import (
	"fmt"
	"math"
)

// Visible range and editing constants, in minutes since midnight.
const (
	RangeStart      = 6 * 60  // 06:00
	RangeEnd        = 23 * 60 // 23:00
	RangeMinutes    = RangeEnd - RangeStart
	MinDuration     = 30
	DefaultDuration = 60
	SnapStep        = 30
	SnapThreshold   = 15
	minutesPerDay   = 24 * 60
)

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// Returns 0 for invalid input.
func TimeToMinutes(t string) int {
	if len(t) < 5 {
		return 0
	}
	hours := int(t[0]-'0')*10 + int(t[1]-'0')
	mins := int(t[3]-'0')*10 + int(t[4]-'0')
	return hours*60 + mins
}

// MinutesToTime converts minutes since midnight to "HH:MM" format.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= minutesPerDay {
		m = minutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// SnapToHalfHour rounds m to the nearest multiple of 30, halves rounding up.
func SnapToHalfHour(m int) int {
	return int(math.Floor(float64(m)/SnapStep+0.5)) * SnapStep
}

// Clamp limits n to [lo, hi].
func Clamp(n, lo, hi int) int {
	return max(lo, min(hi, n))
}

// ClampFloat limits n to [lo, hi].
func ClampFloat(n, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, n))
}

// OffsetFraction maps t onto [0, 1] across [rangeStart, rangeEnd] minutes.
func OffsetFraction(t string, rangeStart, rangeEnd int) float64 {
	span := rangeEnd - rangeStart
	if span <= 0 {
		return 0
	}
	frac := float64(TimeToMinutes(t)-rangeStart) / float64(span)
	return ClampFloat(frac, 0, 1)
}

// Duration returns the minutes between start and end.
func Duration(start, end string) int {
	return TimeToMinutes(end) - TimeToMinutes(start)
}

// TimesOverlap returns true if two time ranges overlap.
// Two time ranges overlap if: start1 < end2 AND start2 < end1
func TimesOverlap(start1, end1, start2, end2 string) bool {
	return start1 < end2 && start2 < end1
}
