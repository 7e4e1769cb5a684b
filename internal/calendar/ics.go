package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/Natascha-cs/kalendr/internal/model"
)

const productID = "-//kalendr//kalendr//EN"

// ErrNothingToExport is returned when there are no events to write; an
// iCalendar object must contain at least one component.
var ErrNothingToExport = errors.New("no events to export")

// Imported holds the day-bound events decoded from an iCalendar source.
type Imported struct {
	Days    map[string][]model.Event
	Skipped int // all-day, multi-day or malformed VEVENTs
}

// Count returns the number of imported events.
func (im *Imported) Count() int {
	return countAll(im.Days)
}

// Open returns a reader for an iCalendar URL or file path.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening calendar file: %w", err)
	}
	return f, nil
}

// Import decodes VEVENTs into per-day events. Events without a time of day
// or spanning midnight cannot be represented and are counted as skipped.
// Floating times are read in the local zone.
func Import(r io.Reader) (*Imported, error) {
	dec := ical.NewDecoder(r)
	out := &Imported{Days: make(map[string][]model.Event)}

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			if p := event.Props.Get(ical.PropDateTimeStart); p == nil || p.ValueType() == ical.ValueDate {
				out.Skipped++
				continue
			}
			start, err := event.DateTimeStart(time.Local)
			if err != nil {
				out.Skipped++
				continue
			}
			end, err := event.DateTimeEnd(time.Local)
			if err != nil {
				out.Skipped++
				continue
			}
			start, end = start.In(time.Local), end.In(time.Local)
			if DateKey(start) != DateKey(end) {
				out.Skipped++
				continue
			}

			summary, _ := event.Props.Text(ical.PropSummary)
			e := model.NewEvent(summary, model.ClockOf(start), model.ClockOf(end))
			if uid, _ := event.Props.Text(ical.PropUID); uid != "" {
				e.ID = uid
			}
			if err := e.Validate(); err != nil {
				out.Skipped++
				continue
			}

			key := DateKey(start)
			out.Days[key] = append(out.Days[key], e)
		}
	}

	return out, nil
}

// Export writes the given days as a single VCALENDAR. Event IDs become UIDs
// so a later import of the same file can recognise them.
func Export(w io.Writer, days map[string][]model.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if countAll(days) == 0 {
		return ErrNothingToExport
	}

	for _, key := range keys {
		day, err := model.ParseDate(key)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", key, err)
		}
		for _, e := range days[key] {
			vevent := ical.NewEvent()
			vevent.Props.SetText(ical.PropUID, e.ID)
			vevent.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
			setFloating(vevent.Props, ical.PropDateTimeStart, e.Start.On(day))
			setFloating(vevent.Props, ical.PropDateTimeEnd, e.End.On(day))
			vevent.Props.SetText(ical.PropSummary, e.Title)
			cal.Children = append(cal.Children, vevent.Component)
		}
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

// setFloating writes t as a floating local date-time with no TZID.
func setFloating(props ical.Props, name string, t time.Time) {
	prop := ical.NewProp(name)
	prop.SetValueType(ical.ValueDateTime)
	prop.Value = t.Format("20060102T150405")
	props.Set(prop)
}

func countAll(days map[string][]model.Event) int {
	n := 0
	for _, evs := range days {
		n += len(evs)
	}
	return n
}

// DateKey groups a local instant by day (YYYY-MM-DD).
func DateKey(t time.Time) string {
	return model.DateKey(t.Local())
}
