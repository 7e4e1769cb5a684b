package slots

import (
	"errors"
	"sort"

	"github.com/Natascha-cs/kalendr/internal/model"
)

// clampMinutes is the length given to events whose end does not follow
// their start.
const clampMinutes = 30

var ErrNegativeMinimum = errors.New("minimum slot length cannot be negative")

type interval struct {
	start, end model.Clock
}

// FindFreeSlots returns the gaps of the day [00:00, 23:59] not covered by any
// event, in chronological order, keeping only gaps of at least minMinutes.
// Overlapping and nested events are merged by never moving the cursor back.
func FindFreeSlots(events []model.Event, minMinutes int) ([]model.FreeSlot, error) {
	if minMinutes < 0 {
		return nil, ErrNegativeMinimum
	}

	intervals := make([]interval, 0, len(events))
	for _, e := range events {
		iv := interval{start: e.Start, end: e.End}
		if iv.end <= iv.start {
			iv.end = iv.start + clampMinutes
		}
		intervals = append(intervals, iv)
	}
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	var free []model.FreeSlot
	emit := func(start, end model.Clock) {
		d := int(end - start)
		if d > 0 && d >= minMinutes {
			free = append(free, model.FreeSlot{Start: start, End: end, Duration: d})
		}
	}

	cursor := model.DayStart
	for _, iv := range intervals {
		if iv.start > cursor {
			emit(cursor, min(iv.start, model.DayEnd))
		}
		cursor = max(cursor, iv.end)
	}
	if model.DayEnd > cursor {
		emit(cursor, model.DayEnd)
	}

	return free, nil
}

// TotalFree sums the minutes of the given slots.
func TotalFree(free []model.FreeSlot) int {
	total := 0
	for _, s := range free {
		total += s.Duration
	}
	return total
}

// Covering returns the slot that contains the clock value, if any.
func Covering(free []model.FreeSlot, at model.Clock) (model.FreeSlot, bool) {
	for _, s := range free {
		if at >= s.Start && at < s.End {
			return s, true
		}
	}
	return model.FreeSlot{}, false
}
