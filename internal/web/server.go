package web

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Natascha-cs/kalendr/internal/app"
	"github.com/Natascha-cs/kalendr/internal/suggest"
)

type Options struct {
	MinFreeMinutes int
	SummaryEvents  int
	SuggestLimit   int
	Location       *suggest.Location
}

// Server exposes the planner as a JSON API.
type Server struct {
	planner *app.Planner
	opts    Options
	logger  *slog.Logger
	app     *fiber.App
}

func New(planner *app.Planner, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.SummaryEvents <= 0 {
		opts.SummaryEvents = 2
	}
	s := &Server{planner: planner, opts: opts, logger: logger}

	s.app = fiber.New(fiber.Config{
		AppName:               "kalendr",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.logRequests)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/month/:year/:month", s.getMonth)
	api.Get("/days/:date", s.getDay)
	api.Post("/days/:date/events", s.createEvent)
	api.Delete("/days/:date/events/:id", s.deleteEvent)
	api.Get("/days/:date/free", s.getFreeSlots)
	api.Post("/days/:date/accept", s.acceptSuggestion)
	api.Get("/suggestions", s.getSuggestions)
}

// App returns the underlying fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"elapsed", time.Since(start),
	)
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= 500 {
		s.logger.Error("http handler failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
