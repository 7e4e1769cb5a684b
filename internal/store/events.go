package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/Natascha-cs/kalendr/internal/model"
)

// LoadStatus tells the caller which path Load took.
type LoadStatus int

const (
	LoadOK LoadStatus = iota
	// LoadMissing means no file existed yet; the store starts empty.
	LoadMissing
	// LoadMalformed means the file could not be parsed and was ignored.
	// The next Save overwrites it.
	LoadMalformed
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadMalformed:
		return "malformed"
	}
	return fmt.Sprintf("LoadStatus(%d)", int(s))
}

// EventStore maps ISO dates to that day's events in insertion order and
// mirrors the whole mapping to a JSON file on Save. A date present in the
// map always has at least one event.
type EventStore struct {
	path   string
	days   map[string][]model.Event
	logger *slog.Logger
}

// NewEventStore returns an empty store backed by path.
func NewEventStore(path string, logger *slog.Logger) *EventStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &EventStore{
		path:   path,
		days:   make(map[string][]model.Event),
		logger: logger,
	}
}

// Load reads the backing file. A missing or unparsable file yields an empty
// store and a non-OK status; only an unreadable existing file is an error.
func Load(path string, logger *slog.Logger) (*EventStore, LoadStatus, error) {
	s := NewEventStore(path, logger)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("event file not found, starting empty", "path", path)
			return s, LoadMissing, nil
		}
		return nil, LoadOK, fmt.Errorf("reading event file: %w", err)
	}

	var raw map[string][]model.Event
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("event file is malformed, starting empty", "path", path, "error", err)
		return s, LoadMalformed, nil
	}

	for key, events := range raw {
		if _, err := model.ParseDate(key); err != nil {
			s.logger.Warn("event file has invalid date key, starting empty", "path", path, "key", key)
			return NewEventStore(path, logger), LoadMalformed, nil
		}
		for _, e := range events {
			if e.ID == "" {
				e.ID = uuid.NewString()
			}
			s.days[key] = append(s.days[key], e)
		}
	}

	s.logger.Debug("event file loaded", "path", path, "days", len(s.days))
	return s, LoadOK, nil
}

// Save overwrites the backing file with the full mapping. The write goes
// through a temp file and rename so a crash never leaves half a file.
func (s *EventStore) Save() error {
	data, err := json.MarshalIndent(s.days, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling events: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp event file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming event file: %w", err)
	}

	s.logger.Debug("event file saved", "path", s.path, "days", len(s.days))
	return nil
}

// Path returns the backing file location.
func (s *EventStore) Path() string {
	return s.path
}

// Add validates e and appends it to date's list, assigning an ID when it has
// none. Invalid events leave the store untouched.
func (s *EventStore) Add(date string, e model.Event) (model.Event, error) {
	if _, err := model.ParseDate(date); err != nil {
		return model.Event{}, err
	}
	if err := e.Validate(); err != nil {
		return model.Event{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.days[date] = append(s.days[date], e)
	return e, nil
}

// Remove deletes the event with the given ID.
func (s *EventStore) Remove(date, id string) bool {
	for i, e := range s.days[date] {
		if e.ID == id {
			s.removeAt(date, i)
			return true
		}
	}
	return false
}

// RemoveMatching deletes the first event equal in value to e. Of two
// identical events it is unspecified which one goes; use Remove to target a
// specific entry.
func (s *EventStore) RemoveMatching(date string, e model.Event) bool {
	for i, cur := range s.days[date] {
		if cur.Equal(e) {
			s.removeAt(date, i)
			return true
		}
	}
	return false
}

func (s *EventStore) removeAt(date string, i int) {
	list := s.days[date]
	list = append(list[:i:i], list[i+1:]...)
	if len(list) == 0 {
		delete(s.days, date)
		return
	}
	s.days[date] = list
}

// Has reports whether an event with that ID exists on date.
func (s *EventStore) Has(date, id string) bool {
	for _, e := range s.days[date] {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Events returns a copy of date's events in insertion order.
func (s *EventStore) Events(date string) []model.Event {
	list := s.days[date]
	if len(list) == 0 {
		return nil
	}
	out := make([]model.Event, len(list))
	copy(out, list)
	return out
}

// Sorted returns date's events ordered by start time, then end time.
func (s *EventStore) Sorted(date string) []model.Event {
	out := s.Events(date)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// Dates returns all dates that have events, ascending.
func (s *EventStore) Dates() []string {
	keys := make([]string, 0, len(s.days))
	for k := range s.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a deep copy of the whole mapping.
func (s *EventStore) Snapshot() map[string][]model.Event {
	out := make(map[string][]model.Event, len(s.days))
	for k := range s.days {
		out[k] = s.Events(k)
	}
	return out
}
