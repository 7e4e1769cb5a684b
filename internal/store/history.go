package store

import (
	"fmt"
	"time"

	"github.com/Natascha-cs/kalendr/internal/model"
)

// Accepted records a suggestion that was turned into an event.
type Accepted struct {
	ID               int
	EventID          string
	Date             string
	Title            string
	Category         string
	Location         string
	Start            model.Clock
	End              model.Clock
	SuggestedMinutes int
	CreatedAt        time.Time
}

func (db *DB) InsertAccepted(a *Accepted) (int64, error) {
	result, err := db.Exec(
		`INSERT INTO accepted (event_id, date, title, category, location, start_time, end_time, suggested_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.EventID, a.Date, a.Title, a.Category, a.Location,
		a.Start.String(), a.End.String(), a.SuggestedMinutes,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting accepted suggestion: %w", err)
	}
	return result.LastInsertId()
}

// RecentAccepted returns up to limit accepted suggestions, newest first.
func (db *DB) RecentAccepted(limit int) ([]Accepted, error) {
	rows, err := db.Query(
		`SELECT id, event_id, date, title, category, location, start_time, end_time, suggested_minutes, created_at
		 FROM accepted
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying accepted suggestions: %w", err)
	}
	defer rows.Close()

	var out []Accepted
	for rows.Next() {
		var a Accepted
		var startStr, endStr, createdStr string

		if err := rows.Scan(
			&a.ID, &a.EventID, &a.Date, &a.Title, &a.Category, &a.Location,
			&startStr, &endStr, &a.SuggestedMinutes, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning accepted suggestion: %w", err)
		}

		if c, err := model.ParseClock(startStr); err == nil {
			a.Start = c
		}
		if c, err := model.ParseClock(endStr); err == nil {
			a.End = c
		}
		if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
			a.CreatedAt = t
		} else if t, err := time.Parse(time.DateTime, createdStr); err == nil {
			a.CreatedAt = t
		}

		out = append(out, a)
	}

	return out, rows.Err()
}
