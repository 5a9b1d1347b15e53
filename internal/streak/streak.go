// Package streak derives streak statistics from a habit's completion days.
// Nothing here is stored; callers recompute on every read.
package streak

import (
	"slices"

	"github.com/lifeboard/lifeboard/internal/day"
)

// Stats are derived from a habit's completion days on every read.
type Stats struct {
	TodayDone     bool `json:"today_done"`
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
}

// Summary is the list-view shape: Stats plus totals.
type Summary struct {
	Stats
	TotalDays int      `json:"total_days"`
	LastDone  *day.Day `json:"last_done"`
}

// Compute returns the streak statistics for days as of today.
//
// days may be unsorted and may contain duplicates. A current streak only counts
// when today itself is completed; days after today never contribute to it.
func Compute(days []day.Day, today day.Day) Stats {
	sorted := normalize(days)
	if len(sorted) == 0 {
		return Stats{}
	}

	_, todayDone := slices.BinarySearch(sorted, today)

	current := 0
	if todayDone {
		for cursor := today; ; cursor = cursor.AddDays(-1) {
			if _, ok := slices.BinarySearch(sorted, cursor); !ok {
				break
			}
			current++
		}
	}

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	return Stats{
		TodayDone:     todayDone,
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

// Summarize computes Stats and adds the distinct day count and the latest day.
func Summarize(days []day.Day, today day.Day) Summary {
	sorted := normalize(days)
	s := Summary{
		Stats:     Compute(sorted, today),
		TotalDays: len(sorted),
	}
	if len(sorted) > 0 {
		last := sorted[len(sorted)-1]
		s.LastDone = &last
	}
	return s
}

// normalize returns a sorted, deduplicated copy of days.
func normalize(days []day.Day) []day.Day {
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}
