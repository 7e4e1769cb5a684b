package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Natascha-cs/kalendr/internal/calendar"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/slots"
	"github.com/Natascha-cs/kalendr/internal/store"
	"github.com/Natascha-cs/kalendr/internal/suggest"
)

var ErrEventNotFound = errors.New("event not found")

const selectedDateKey = "selected_date"

// Planner carries out user actions against the event store. Every method
// that changes events saves the store before returning.
type Planner struct {
	events  *store.EventStore
	adapter *suggest.Adapter
	db      *store.DB
	logger  *slog.Logger
}

// NewPlanner wires the planner. adapter and db may be nil; suggestions and
// history are then unavailable.
func NewPlanner(events *store.EventStore, adapter *suggest.Adapter, db *store.DB, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{
		events:  events,
		adapter: adapter,
		db:      db,
		logger:  logger,
	}
}

func (p *Planner) AddEvent(date, title, start, end string) (model.Event, error) {
	if _, err := model.ParseDate(date); err != nil {
		return model.Event{}, err
	}
	s, err := model.ParseClock(start)
	if err != nil {
		return model.Event{}, fmt.Errorf("start: %w", err)
	}
	e, err := model.ParseClock(end)
	if err != nil {
		return model.Event{}, fmt.Errorf("end: %w", err)
	}

	added, err := p.events.Add(date, model.NewEvent(title, s, e))
	if err != nil {
		return model.Event{}, err
	}
	p.logger.Info("event added", "date", date, "id", added.ID, "title", added.Title)

	if err := p.save(); err != nil {
		return added, err
	}
	return added, nil
}

func (p *Planner) DeleteEvent(date, id string) error {
	if !p.events.Remove(date, id) {
		return fmt.Errorf("%w: %s on %s", ErrEventNotFound, id, date)
	}
	p.logger.Info("event deleted", "date", date, "id", id)
	return p.save()
}

// Events returns the day's events sorted by start.
func (p *Planner) Events(date string) []model.Event {
	return p.events.Sorted(date)
}

func (p *Planner) FreeSlots(date string, minMinutes int) ([]model.FreeSlot, error) {
	return slots.FindFreeSlots(p.events.Events(date), minMinutes)
}

func (p *Planner) Suggest(ctx context.Context, loc *suggest.Location, limit int) []model.Suggestion {
	if p.adapter == nil {
		return []model.Suggestion{suggest.Placeholder(errors.New("suggestions are not configured"))}
	}
	return p.adapter.SuggestActivities(ctx, loc, limit)
}

func (p *Planner) SuggestForSlot(ctx context.Context, date string, slot model.FreeSlot, loc *suggest.Location, limit int) []model.Suggestion {
	if p.adapter == nil {
		return []model.Suggestion{suggest.Placeholder(errors.New("suggestions are not configured"))}
	}
	return p.adapter.SuggestForSlot(ctx, loc, limit, date, slot)
}

// AcceptSuggestion books s into slot on date and records it in the history.
func (p *Planner) AcceptSuggestion(date string, slot model.FreeSlot, s model.Suggestion) (model.Event, error) {
	e, err := suggest.Accept(s, slot)
	if err != nil {
		return model.Event{}, err
	}
	added, err := p.events.Add(date, e)
	if err != nil {
		return model.Event{}, err
	}
	p.logger.Info("suggestion accepted", "date", date, "title", added.Title, "start", added.Start, "end", added.End)

	if err := p.save(); err != nil {
		return added, err
	}

	if p.db != nil {
		_, err := p.db.InsertAccepted(&store.Accepted{
			EventID:          added.ID,
			Date:             date,
			Title:            added.Title,
			Category:         s.Category,
			Location:         s.Location,
			Start:            added.Start,
			End:              added.End,
			SuggestedMinutes: s.SuggestedMinutes,
		})
		if err != nil {
			p.logger.Warn("failed to record accepted suggestion", "error", err)
		}
	}
	return added, nil
}

// DaySummary returns up to n titles for a grid cell and how many were left out.
func (p *Planner) DaySummary(date string, n int) ([]string, int) {
	events := p.events.Sorted(date)
	var titles []string
	for i, e := range events {
		if i == n {
			break
		}
		titles = append(titles, e.Title)
	}
	return titles, len(events) - len(titles)
}

type HourBucket struct {
	Hour   int
	Events []model.Event
}

// HourBuckets groups the day's events by start hour, earliest first.
func (p *Planner) HourBuckets(date string) []HourBucket {
	byHour := make(map[int][]model.Event)
	for _, e := range p.events.Sorted(date) {
		byHour[e.Start.Hour()] = append(byHour[e.Start.Hour()], e)
	}
	buckets := make([]HourBucket, 0, len(byHour))
	for h, evs := range byHour {
		buckets = append(buckets, HourBucket{Hour: h, Events: evs})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Hour < buckets[j].Hour })
	return buckets
}

// RememberSelection stores the selected day for the next session.
func (p *Planner) RememberSelection(s State) error {
	if p.db == nil || s.Selected.IsZero() {
		return nil
	}
	if err := p.db.SetState(selectedDateKey, s.SelectedKey()); err != nil {
		return fmt.Errorf("remembering selection: %w", err)
	}
	return nil
}

// RestoreSelection returns s with the remembered day selected, if any.
func (p *Planner) RestoreSelection(s State) State {
	if p.db == nil {
		return s
	}
	v, err := p.db.GetState(selectedDateKey)
	if err != nil {
		p.logger.Warn("failed to read remembered selection", "error", err)
		return s
	}
	if v == "" {
		return s
	}
	d, err := model.ParseDate(v)
	if err != nil {
		p.logger.Warn("ignoring invalid remembered selection", "value", v)
		return s
	}
	return s.Select(d)
}

func (p *Planner) History(limit int) ([]store.Accepted, error) {
	if p.db == nil {
		return nil, nil
	}
	return p.db.RecentAccepted(limit)
}

// Import merges imported days into the store, skipping events that are
// already present on the same day.
func (p *Planner) Import(imp *calendar.Imported) (int, error) {
	added := 0
	for date, events := range imp.Days {
		for _, e := range events {
			if p.events.Has(date, e.ID) || p.containsEqual(date, e) {
				continue
			}
			if _, err := p.events.Add(date, e); err != nil {
				p.logger.Warn("skipping imported event", "date", date, "title", e.Title, "error", err)
				continue
			}
			added++
		}
	}
	if added == 0 {
		return 0, nil
	}
	return added, p.save()
}

func (p *Planner) containsEqual(date string, e model.Event) bool {
	for _, existing := range p.events.Events(date) {
		if existing.Equal(e) {
			return true
		}
	}
	return false
}

// Export writes every stored event as iCalendar.
func (p *Planner) Export(w io.Writer, now time.Time) error {
	return calendar.Export(w, p.events.Snapshot(), now)
}

// Dates lists days with events, optionally restricted to one month ("YYYY-MM").
func (p *Planner) Dates(monthPrefix string) []string {
	all := p.events.Dates()
	if monthPrefix == "" {
		return all
	}
	var out []string
	for _, d := range all {
		if strings.HasPrefix(d, monthPrefix+"-") {
			out = append(out, d)
		}
	}
	return out
}

func (p *Planner) save() error {
	if err := p.events.Save(); err != nil {
		p.logger.Error("failed to save events", "path", p.events.Path(), "error", err)
		return fmt.Errorf("saving events: %w", err)
	}
	return nil
}
