package calendar

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Natascha-cs/kalendr/internal/model"
)

func TestExportImportRoundTrip(t *testing.T) {
	days := map[string][]model.Event{
		"2025-05-02": {
			model.NewEvent("Dentist", model.NewClock(9, 0), model.NewClock(10, 0)),
			model.NewEvent("Lunch", model.NewClock(12, 30), model.NewClock(13, 15)),
		},
		"2025-05-03": {
			model.NewEvent("Climbing", model.NewClock(18, 0), model.NewClock(20, 0)),
		},
	}

	var buf bytes.Buffer
	if err := Export(&buf, days, time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(buf.String(), "BEGIN:VCALENDAR") {
		t.Fatalf("export missing VCALENDAR:\n%s", buf.String())
	}

	im, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if im.Count() != 3 {
		t.Fatalf("expected 3 events, got %d", im.Count())
	}
	if im.Skipped != 0 {
		t.Errorf("expected no skipped events, got %d", im.Skipped)
	}

	for key, want := range days {
		got := im.Days[key]
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d events, got %d", key, len(want), len(got))
		}
		for i := range want {
			if !got[i].Equal(want[i]) {
				t.Errorf("%s[%d] = %s, want %s", key, i, got[i], want[i])
			}
			if got[i].ID != want[i].ID {
				t.Errorf("%s[%d] ID = %s, want %s", key, i, got[i].ID, want[i].ID)
			}
		}
	}
}

func TestExportWritesFloatingTimes(t *testing.T) {
	days := map[string][]model.Event{
		"2025-06-12": {model.NewEvent("x", model.NewClock(9, 0), model.NewClock(10, 0))},
	}

	var buf bytes.Buffer
	if err := Export(&buf, days, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "TZID=") {
		t.Errorf("export should not reference a time zone:\n%s", out)
	}
	for _, want := range []string{"DTSTART:20250612T090000\r\n", "DTEND:20250612T100000\r\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := Export(&buf, map[string][]model.Event{}, time.Now())
	if !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
}

func TestImportSkipsAllDayAndMultiDay(t *testing.T) {
	const data = "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:allday\r\n" +
		"DTSTAMP:20250101T000000Z\r\n" +
		"DTSTART;VALUE=DATE:20250110\r\n" +
		"DTEND;VALUE=DATE:20250111\r\n" +
		"SUMMARY:Holiday\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:overnight\r\n" +
		"DTSTAMP:20250101T000000Z\r\n" +
		"DTSTART:20250110T220000\r\n" +
		"DTEND:20250111T060000\r\n" +
		"SUMMARY:Night train\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:standup\r\n" +
		"DTSTAMP:20250101T000000Z\r\n" +
		"DTSTART:20250110T093000\r\n" +
		"DTEND:20250110T094500\r\n" +
		"SUMMARY:Standup\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	im, err := Import(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if im.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", im.Skipped)
	}
	got := im.Days["2025-01-10"]
	if len(got) != 1 {
		t.Fatalf("expected 1 event on 2025-01-10, got %v", im.Days)
	}
	if got[0].Title != "Standup" || got[0].Start != model.NewClock(9, 30) || got[0].End != model.NewClock(9, 45) {
		t.Errorf("unexpected event %s", got[0])
	}
	if got[0].ID != "standup" {
		t.Errorf("expected UID to become the event ID, got %q", got[0].ID)
	}
}
