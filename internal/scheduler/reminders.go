package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Natascha-cs/kalendr/internal/config"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/store"
)

// Reminder is an event that starts soon.
type Reminder struct {
	Date  string
	Event model.Event
	At    time.Time
}

func (r Reminder) key() string {
	return r.Date + "/" + r.Event.ID
}

// DueReminders returns events starting within lead of now, earliest first.
// Events on the next day are included when the window crosses midnight.
func DueReminders(days map[string][]model.Event, now time.Time, lead time.Duration) []Reminder {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var due []Reminder
	for _, day := range []time.Time{today, today.AddDate(0, 0, 1)} {
		key := model.DateKey(day)
		for _, e := range days[key] {
			at := e.Start.On(day)
			if at.Before(now) || at.Sub(now) > lead {
				continue
			}
			due = append(due, Reminder{Date: key, Event: e, At: at})
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].At.Before(due[j].At) })
	return due
}

// Notifier delivers one reminder.
type Notifier func(title, message string) error

// Scheduler checks the events file on a cron schedule and notifies about
// upcoming events. Each event is announced once per run.
type Scheduler struct {
	eventsPath string
	schedule   string
	lead       time.Duration
	notify     Notifier
	logger     *slog.Logger
	now        func() time.Time

	mu   sync.Mutex
	sent map[string]bool
}

func New(cfg *config.Config, eventsPath string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		eventsPath: eventsPath,
		schedule:   cfg.Reminders.Schedule,
		lead:       time.Duration(cfg.Reminders.LeadMinutes) * time.Minute,
		notify:     SendNotification,
		logger:     logger,
		now:        time.Now,
		sent:       make(map[string]bool),
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	if err := writePID(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePID()

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.Check); err != nil {
		return fmt.Errorf("parsing reminder schedule %q: %w", s.schedule, err)
	}

	fmt.Printf("Reminders started (schedule: %s, lead: %s)\n", s.schedule, s.lead)
	s.Check()
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	fmt.Println("\nReminders stopped.")
	return nil
}

// Check reloads the events file and sends notifications for due events.
func (s *Scheduler) Check() {
	events, status, err := store.Load(s.eventsPath, s.logger)
	if err != nil {
		s.logger.Error("failed to load events for reminders", "error", err)
		return
	}
	if status != store.LoadOK {
		return
	}

	due := DueReminders(events.Snapshot(), s.now(), s.lead)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range due {
		if s.sent[r.key()] {
			continue
		}
		msg := fmt.Sprintf("%s at %s", r.Event.Title, r.Event.Start)
		if err := s.notify("kalendr", msg); err != nil {
			s.logger.Warn("notification failed", "error", err, "event", r.Event.ID)
			continue
		}
		s.logger.Info("reminder sent", "date", r.Date, "event", r.Event.ID, "title", r.Event.Title)
		s.sent[r.key()] = true
	}
}

func pidPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kalendr.pid"), nil
}

func writePID() error {
	path, err := pidPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePID() {
	if path, err := pidPath(); err == nil {
		os.Remove(path)
	}
}

func ReadPID() (int, error) {
	path, err := pidPath()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("no running reminder loop found")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file")
	}

	return pid, nil
}
