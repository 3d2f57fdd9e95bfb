package usage

import (
	"time"

	"wellsync/internal/types"
)

const (
	MinDays = 1
	MaxDays = 365
)

// DayOfWeekFactor is the multiplier applied to a category's usage on a given day.
// Weekends boost leisure apps and damp work apps; weekdays do the reverse.
func DayOfWeekFactor(category types.Category, day time.Time) float64 {
	weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
	switch category {
	case types.CategorySocial, types.CategoryEntertainment:
		if weekend {
			return 1.3
		}
		return 0.9
	case types.CategoryProductivity:
		if weekend {
			return 0.6
		}
		return 1.2
	default:
		return 1.0
	}
}

var typicalHours = map[types.Category][]int{
	types.CategorySocial:        {8, 12, 13, 19, 21, 22, 23},
	types.CategoryEntertainment: {18, 19, 20, 21, 22, 23},
	types.CategoryProductivity:  {9, 10, 11, 14, 15, 16},
	types.CategoryHealth:        {6, 7, 8, 18, 20},
	types.CategoryOther:         {9, 12, 15, 17, 20},
}

func typicalHour(category types.Category, rng *Random) int {
	hours, ok := typicalHours[category]
	if !ok {
		hours = typicalHours[types.CategoryOther]
	}
	return hours[rng.Intn(len(hours))]
}

// ClampDays bounds a requested window to [MinDays, MaxDays]
func ClampDays(days int) int {
	if days < MinDays {
		return MinDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dayAt(today time.Time, offset int) time.Time {
	return today.AddDate(0, 0, -offset)
}
