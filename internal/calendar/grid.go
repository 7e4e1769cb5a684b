package calendar

import "time"

const (
	MinYear = 1900
	MaxYear = 2100
)

// BuildMonthGrid returns the weeks covering the given month, Monday first.
// Each week has exactly seven dates; days of the neighbouring months pad the
// first and last rows.
func BuildMonthGrid(year int, month time.Month) [][]time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -mondayOffset(first.Weekday()))
	end := last.AddDate(0, 0, 6-mondayOffset(last.Weekday()))

	var weeks [][]time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 7) {
		week := make([]time.Time, 7)
		for i := range week {
			week[i] = d.AddDate(0, 0, i)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// InMonth reports whether d belongs to the month being rendered; grid cells
// outside it are drawn blank.
func InMonth(d time.Time, month time.Month) bool {
	return d.Month() == month
}

// ValidYear reports whether y is within the supported range.
func ValidYear(y int) bool {
	return y >= MinYear && y <= MaxYear
}

// WeekdayNames are the grid column headers.
var WeekdayNames = [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

func mondayOffset(w time.Weekday) int {
	return (int(w) + 6) % 7
}
