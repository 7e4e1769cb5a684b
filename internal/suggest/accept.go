package suggest

import (
	"errors"

	"github.com/Natascha-cs/kalendr/internal/model"
)

var ErrPlaceholder = errors.New("placeholder suggestion cannot be accepted")

// Accept turns a suggestion into an event at the start of slot. The
// duration is clipped to what the slot has room for.
func Accept(s model.Suggestion, slot model.FreeSlot) (model.Event, error) {
	if s.Placeholder {
		return model.Event{}, ErrPlaceholder
	}
	minutes := s.SuggestedMinutes
	if minutes <= 0 {
		minutes = defaultMinutes(s.Category)
	}
	minutes = min(minutes, slot.Duration)

	e := model.NewEvent(s.Title, slot.Start, slot.Start+model.Clock(minutes))
	if err := e.Validate(); err != nil {
		return model.Event{}, err
	}
	return e, nil
}
