package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Natascha-cs/kalendr/internal/app"
	"github.com/Natascha-cs/kalendr/internal/calendar"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/slots"
)

func printMonth(w io.Writer, planner *app.Planner, year int, month time.Month, now time.Time) {
	fmt.Fprintf(w, "%s %d\n\n", month, year)
	fmt.Fprintln(w, strings.Join(calendar.WeekdayNames[:], "    "))

	today := model.DateKey(now)
	for _, week := range calendar.BuildMonthGrid(year, month) {
		cells := make([]string, 0, len(week))
		for _, d := range week {
			if !calendar.InMonth(d, month) {
				cells = append(cells, "     ")
				continue
			}
			key := model.DateKey(d)
			mark := " "
			if key == today {
				mark = "*"
			}
			count := ""
			if titles, more := planner.DaySummary(key, 1); len(titles) > 0 {
				count = fmt.Sprintf("%d", len(titles)+more)
			}
			cells = append(cells, fmt.Sprintf("%s%2d%-2s", mark, d.Day(), count))
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
}

func printDay(w io.Writer, planner *app.Planner, date string) {
	fmt.Fprintf(w, "%s\n\n", date)
	buckets := planner.HourBuckets(date)
	if len(buckets) == 0 {
		fmt.Fprintln(w, "No events for this day.")
		return
	}
	for _, b := range buckets {
		fmt.Fprintf(w, "%02d:00\n", b.Hour)
		for _, e := range b.Events {
			fmt.Fprintf(w, "  %s–%s  %-30s  %s\n", e.Start, e.End, e.Title, e.ID)
		}
	}
}

func printFree(w io.Writer, date string, free []model.FreeSlot) {
	if len(free) == 0 {
		fmt.Fprintf(w, "No free slots on %s.\n", date)
		return
	}
	fmt.Fprintf(w, "Free on %s:\n\n", date)
	for _, s := range free {
		fmt.Fprintf(w, "  %s–%s  %4d min\n", s.Start, s.End, s.Duration)
	}
	total := slots.TotalFree(free)
	fmt.Fprintf(w, "\nTotal: %dh %dmin\n", total/60, total%60)
}

func printSuggestions(w io.Writer, suggestions []model.Suggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions.")
		return
	}
	for _, s := range suggestions {
		if s.Placeholder {
			fmt.Fprintf(w, "  %s\n", s.Title)
			continue
		}
		detail := strings.TrimPrefix(strings.Join([]string{s.Category, s.Location}, ", "), ", ")
		detail = strings.TrimSuffix(detail, ", ")
		fmt.Fprintf(w, "  %-30s  %3d min  %s\n", s.Title, s.SuggestedMinutes, detail)
	}
}
