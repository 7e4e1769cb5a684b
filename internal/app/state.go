package app

import (
	"time"

	"github.com/Natascha-cs/kalendr/internal/calendar"
)

// State is what the user is looking at: the displayed month and the
// selected day. It is passed around by value.
type State struct {
	Year     int
	Month    time.Month
	Selected time.Time
}

func NewState(now time.Time) State {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return State{Year: day.Year(), Month: day.Month(), Selected: day}
}

// Select moves the selection to date and shows its month.
func (s State) Select(date time.Time) State {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local)
	if !calendar.ValidYear(day.Year()) {
		return s
	}
	return State{Year: day.Year(), Month: day.Month(), Selected: day}
}

// ShiftMonth moves the displayed month by delta. The selected day keeps its
// day-of-month, clamped to the length of the new month.
func (s State) ShiftMonth(delta int) State {
	first := time.Date(s.Year, s.Month+time.Month(delta), 1, 0, 0, 0, 0, time.Local)
	if !calendar.ValidYear(first.Year()) {
		return s
	}
	last := first.AddDate(0, 1, -1).Day()
	day := min(s.Selected.Day(), last)
	if s.Selected.IsZero() {
		day = 1
	}
	return State{
		Year:     first.Year(),
		Month:    first.Month(),
		Selected: time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.Local),
	}
}

// SelectedKey is the store key of the selected day.
func (s State) SelectedKey() string {
	return s.Selected.Format(time.DateOnly)
}
