package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var (
	ErrEmptyTitle   = errors.New("event title cannot be empty")
	ErrInvalidRange = errors.New("event start must be before its end")
)

// Event is a titled time interval within a single day.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start Clock  `json:"start"`
	End   Clock  `json:"end"`
}

// NewEvent trims the title and assigns a fresh ID. It does not validate.
func NewEvent(title string, start, end Clock) Event {
	return Event{
		ID:    uuid.NewString(),
		Title: strings.TrimSpace(title),
		Start: start,
		End:   end,
	}
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if e.Start >= e.End {
		return fmt.Errorf("%w (%s-%s)", ErrInvalidRange, e.Start, e.End)
	}
	return nil
}

// Equal compares title and times; the ID is not part of an event's value.
func (e Event) Equal(o Event) bool {
	return e.Title == o.Title && e.Start == o.Start && e.End == o.End
}

func (e Event) Minutes() int {
	return int(e.End - e.Start)
}

func (e Event) String() string {
	return fmt.Sprintf("%s-%s %s", e.Start, e.End, e.Title)
}

// FreeSlot is a maximal uncovered span of a day. Duration is in minutes.
type FreeSlot struct {
	Start    Clock `json:"start"`
	End      Clock `json:"end"`
	Duration int   `json:"duration"`
}

func (s FreeSlot) String() string {
	return fmt.Sprintf("%s-%s (%d min)", s.Start, s.End, s.Duration)
}

// Suggestion is an activity proposed for a free slot.
type Suggestion struct {
	Title            string `json:"title"`
	Category         string `json:"category"`
	Location         string `json:"location"`
	SuggestedMinutes int    `json:"suggested_minutes"`
	// Placeholder marks the stand-in returned when the lookup failed;
	// Title then carries the failure description.
	Placeholder bool `json:"placeholder,omitempty"`
}

// DateKey formats a day as the YYYY-MM-DD key used by the store.
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD key into a local midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
