package web

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Natascha-cs/kalendr/internal/app"
	"github.com/Natascha-cs/kalendr/internal/calendar"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/slots"
	"github.com/Natascha-cs/kalendr/internal/suggest"
)

type dayCell struct {
	Date    string   `json:"date"`
	Day     int      `json:"day"`
	InMonth bool     `json:"in_month"`
	Events  []string `json:"events"`
	More    int      `json:"more"`
}

type eventRequest struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type acceptRequest struct {
	Start      string           `json:"start"`
	Suggestion model.Suggestion `json:"suggestion"`
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func dateParam(c *fiber.Ctx) (string, error) {
	date := c.Params("date")
	d, err := model.ParseDate(date)
	if err != nil {
		return "", badRequest("Invalid date, expected YYYY-MM-DD")
	}
	if !calendar.ValidYear(d.Year()) {
		return "", badRequest("Year out of range")
	}
	return date, nil
}

func (s *Server) getMonth(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil || !calendar.ValidYear(year) {
		return badRequest("Invalid year")
	}
	month, err := strconv.Atoi(c.Params("month"))
	if err != nil || month < 1 || month > 12 {
		return badRequest("Invalid month")
	}

	grid := calendar.BuildMonthGrid(year, time.Month(month))
	weeks := make([][]dayCell, 0, len(grid))
	for _, week := range grid {
		row := make([]dayCell, 0, len(week))
		for _, d := range week {
			key := model.DateKey(d)
			cell := dayCell{Date: key, Day: d.Day(), InMonth: calendar.InMonth(d, time.Month(month)), Events: []string{}}
			if cell.InMonth {
				titles, more := s.planner.DaySummary(key, s.opts.SummaryEvents)
				if titles != nil {
					cell.Events = titles
				}
				cell.More = more
			}
			row = append(row, cell)
		}
		weeks = append(weeks, row)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"year":     year,
		"month":    month,
		"weekdays": calendar.WeekdayNames,
		"weeks":    weeks,
	})
}

func (s *Server) getDay(c *fiber.Ctx) error {
	date, err := dateParam(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"date":    date,
		"events":  s.planner.Events(date),
	})
}

func (s *Server) createEvent(c *fiber.Ctx) error {
	date, err := dateParam(c)
	if err != nil {
		return err
	}
	req := new(eventRequest)
	if err := c.BodyParser(req); err != nil {
		return badRequest("Invalid request body")
	}

	e, err := s.planner.AddEvent(date, req.Title, req.Start, req.End)
	if err != nil {
		if e.ID == "" {
			return badRequest(err.Error())
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"event":   e,
	})
}

func (s *Server) deleteEvent(c *fiber.Ctx) error {
	date, err := dateParam(c)
	if err != nil {
		return err
	}
	if err := s.planner.DeleteEvent(date, c.Params("id")); err != nil {
		if errors.Is(err, app.ErrEventNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Event not found")
		}
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Event deleted",
	})
}

func (s *Server) getFreeSlots(c *fiber.Ctx) error {
	date, err := dateParam(c)
	if err != nil {
		return err
	}
	minMinutes := s.opts.MinFreeMinutes
	if v := c.Query("min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest("Invalid min")
		}
		minMinutes = n
	}

	free, err := s.planner.FreeSlots(date, minMinutes)
	if err != nil {
		return badRequest(err.Error())
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"date":       date,
		"slots":      free,
		"total_free": slots.TotalFree(free),
	})
}

func (s *Server) getSuggestions(c *fiber.Ctx) error {
	loc := s.opts.Location
	lat, lon := c.Query("lat"), c.Query("lon")
	if lat != "" || lon != "" {
		la, errLat := strconv.ParseFloat(lat, 64)
		lo, errLon := strconv.ParseFloat(lon, 64)
		if errLat != nil || errLon != nil {
			return badRequest("lat and lon must both be numbers")
		}
		loc = &suggest.Location{Latitude: la, Longitude: lo}
	}
	limit := c.QueryInt("limit", s.opts.SuggestLimit)

	return c.JSON(fiber.Map{
		"success":     true,
		"suggestions": s.planner.Suggest(c.UserContext(), loc, limit),
	})
}

func (s *Server) acceptSuggestion(c *fiber.Ctx) error {
	date, err := dateParam(c)
	if err != nil {
		return err
	}
	req := new(acceptRequest)
	if err := c.BodyParser(req); err != nil {
		return badRequest("Invalid request body")
	}
	start, err := model.ParseClock(req.Start)
	if err != nil {
		return badRequest(err.Error())
	}

	free, err := s.planner.FreeSlots(date, 0)
	if err != nil {
		return err
	}
	covering, ok := slots.Covering(free, start)
	if !ok {
		return fiber.NewError(fiber.StatusConflict, "No free time at "+start.String())
	}
	slot := model.FreeSlot{Start: start, End: covering.End, Duration: int(covering.End - start)}

	e, err := s.planner.AcceptSuggestion(date, slot, req.Suggestion)
	if err != nil {
		if errors.Is(err, suggest.ErrPlaceholder) || errors.Is(err, model.ErrEmptyTitle) || errors.Is(err, model.ErrInvalidRange) {
			return badRequest(err.Error())
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"event":   e,
	})
}
