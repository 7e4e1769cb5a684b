package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"

	"github.com/Natascha-cs/kalendr/internal/ai"
	"github.com/Natascha-cs/kalendr/internal/app"
	"github.com/Natascha-cs/kalendr/internal/calendar"
	"github.com/Natascha-cs/kalendr/internal/config"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/poi"
	"github.com/Natascha-cs/kalendr/internal/scheduler"
	"github.com/Natascha-cs/kalendr/internal/store"
	"github.com/Natascha-cs/kalendr/internal/suggest"
	"github.com/Natascha-cs/kalendr/internal/tui"
	"github.com/Natascha-cs/kalendr/internal/web"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:          "kalendr",
	Short:        "Personal calendar planner",
	Long:         "kalendr keeps a simple day-by-day calendar, finds free time in a day and suggests things to do with it.",
	SilenceUsage: true,
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive calendar",
	Args:  cobra.NoArgs,
	RunE:  runUI,
}

var monthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Print a month grid",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMonth,
}

var dayCmd = &cobra.Command{
	Use:   "day [date]",
	Short: "List a day's events",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDay,
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add an event",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var rmCmd = &cobra.Command{
	Use:   "rm <date> <id>",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(2),
	RunE:  runRm,
}

var freeCmd = &cobra.Command{
	Use:   "free [date]",
	Short: "List free slots of a day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFree,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest activities nearby",
	Args:  cobra.NoArgs,
	RunE:  runSuggest,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show accepted suggestions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var exportCmd = &cobra.Command{
	Use:   "export <file.ics>",
	Short: "Export all events as iCalendar",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file|url>",
	Short: "Import timed events from an iCalendar file or URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Desktop reminders for upcoming events",
}

var remindStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the reminder loop in the foreground",
	Args:  cobra.NoArgs,
	RunE:  runRemindStart,
}

var remindStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running reminder loop",
	Args:  cobra.NoArgs,
	RunE:  runRemindStop,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	addCmd.Flags().String("date", "today", "Day of the event (YYYY-MM-DD or e.g. \"next friday\")")
	addCmd.Flags().String("start", "", "Start time HH:MM")
	addCmd.Flags().String("end", "", "End time HH:MM")
	addCmd.MarkFlagRequired("start")
	addCmd.MarkFlagRequired("end")

	freeCmd.Flags().Int("min", -1, "Minimum slot length in minutes (default from config)")
	freeCmd.Flags().Bool("suggest", false, "Fetch suggestions for the longest slot")

	suggestCmd.Flags().Float64("lat", 0, "Latitude (default from config)")
	suggestCmd.Flags().Float64("lon", 0, "Longitude (default from config)")
	suggestCmd.Flags().Int("limit", 0, "Maximum number of suggestions")

	historyCmd.Flags().Int("limit", 20, "Number of rows to show")

	serveCmd.Flags().String("listen", "", "Listen address (default from config)")

	remindCmd.AddCommand(remindStartCmd)
	remindCmd.AddCommand(remindStopCmd)

	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(monthCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(freeCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger writes to stderr, or to kalendr.log when the terminal belongs
// to the TUI.
func newLogger(toFile bool) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if !toFile {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
	}
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	if err := config.EnsureConfigDir(); err != nil {
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "kalendr.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { f.Close() }, nil
}

// env is everything a command needs, opened from config.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	events  *store.EventStore
	db      *store.DB
	planner *app.Planner
	close   func()
}

func setup(logToFile bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, closeLog, err := newLogger(logToFile)
	if err != nil {
		return nil, err
	}

	eventsPath, err := cfg.EventsPath()
	if err != nil {
		closeLog()
		return nil, err
	}
	events, status, err := store.Load(eventsPath, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("loading events: %w", err)
	}
	if status == store.LoadMalformed {
		fmt.Fprintf(os.Stderr, "Warning: %s could not be read and was treated as empty; it will be overwritten on the next change.\n", eventsPath)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		closeLog()
		return nil, err
	}
	db, err := store.Open(dir)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	adapter := suggest.NewAdapter(
		newSuggestSource(cfg, logger),
		suggest.Location{Latitude: cfg.Suggest.Latitude, Longitude: cfg.Suggest.Longitude},
		time.Duration(cfg.Suggest.CacheTTLMinutes)*time.Minute,
		suggestTimeout(cfg),
		logger,
	)

	return &env{
		cfg:     cfg,
		logger:  logger,
		events:  events,
		db:      db,
		planner: app.NewPlanner(events, adapter, db, logger),
		close: func() {
			db.Close()
			closeLog()
		},
	}, nil
}

func suggestTimeout(cfg *config.Config) time.Duration {
	if cfg.Suggest.Source == "poi" || cfg.Suggest.Source == "" {
		return time.Duration(cfg.POI.TimeoutSeconds) * time.Second
	}
	return 60 * time.Second
}

func newSuggestSource(cfg *config.Config, logger *slog.Logger) suggest.Source {
	switch cfg.Suggest.Source {
	case "openai":
		return suggest.NewAISource(ai.NewOpenAI(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, logger), cfg.Suggest.City)
	case "claude-cli":
		return suggest.NewAISource(ai.NewClaudeCLI(cfg.AI.Model, logger), cfg.Suggest.City)
	default:
		client := poi.NewClient(cfg.POI.APIKey, cfg.POI.BaseURL, time.Duration(cfg.POI.TimeoutSeconds)*time.Second, logger)
		return suggest.NewPOISource(client)
	}
}

// parseDay accepts YYYY-MM-DD or natural language such as "tomorrow".
func parseDay(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "today" {
		return model.DateKey(now), nil
	}
	if d, err := model.ParseDate(s); err == nil {
		if !calendar.ValidYear(d.Year()) {
			return "", fmt.Errorf("year %d out of range %d-%d", d.Year(), calendar.MinYear, calendar.MaxYear)
		}
		return s, nil
	}
	t, err := naturaldate.Parse(s, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return model.DateKey(t), nil
}

func dayArg(args []string) (string, error) {
	if len(args) == 0 {
		return model.DateKey(time.Now()), nil
	}
	return parseDay(args[0], time.Now())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runUI(cmd *cobra.Command, args []string) error {
	e, err := setup(true)
	if err != nil {
		return err
	}
	defer e.close()

	state := e.planner.RestoreSelection(app.NewState(time.Now()))
	ui := tui.NewApp(e.planner, state, tui.Options{
		MinFreeMinutes: e.cfg.Planner.MinFreeMinutes,
		SummaryEvents:  e.cfg.Planner.SummaryEvents,
		SuggestLimit:   e.cfg.Suggest.Limit,
	})

	p := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	if err := e.planner.RememberSelection(ui.State()); err != nil {
		e.logger.Warn("could not remember selection", "error", err)
	}
	return nil
}

func runMonth(cmd *cobra.Command, args []string) error {
	now := time.Now()
	year, month := now.Year(), now.Month()
	if len(args) == 1 {
		t, err := time.ParseInLocation("2006-01", args[0], time.Local)
		if err != nil {
			return fmt.Errorf("invalid month %q: expected YYYY-MM", args[0])
		}
		year, month = t.Year(), t.Month()
	}
	if !calendar.ValidYear(year) {
		return fmt.Errorf("year %d out of range %d-%d", year, calendar.MinYear, calendar.MaxYear)
	}

	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	printMonth(os.Stdout, e.planner, year, month, now)
	return nil
}

func runDay(cmd *cobra.Command, args []string) error {
	date, err := dayArg(args)
	if err != nil {
		return err
	}
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	printDay(os.Stdout, e.planner, date)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	dateFlag, _ := cmd.Flags().GetString("date")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")

	date, err := parseDay(dateFlag, time.Now())
	if err != nil {
		return err
	}

	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ev, err := e.planner.AddEvent(date, strings.Join(args, " "), start, end)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s on %s (%s)\n", ev, date, ev.ID)
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	date, err := parseDay(args[0], time.Now())
	if err != nil {
		return err
	}
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.planner.DeleteEvent(date, args[1]); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func runFree(cmd *cobra.Command, args []string) error {
	date, err := dayArg(args)
	if err != nil {
		return err
	}
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	minMinutes, _ := cmd.Flags().GetInt("min")
	if !cmd.Flags().Changed("min") {
		minMinutes = e.cfg.Planner.MinFreeMinutes
	}
	free, err := e.planner.FreeSlots(date, minMinutes)
	if err != nil {
		return err
	}
	printFree(os.Stdout, date, free)

	withSuggestions, _ := cmd.Flags().GetBool("suggest")
	if !withSuggestions || len(free) == 0 {
		return nil
	}
	longest := free[0]
	for _, s := range free[1:] {
		if s.Duration > longest.Duration {
			longest = s
		}
	}
	ctx, cancel := signalContext()
	defer cancel()
	fmt.Printf("\nIdeas for %s:\n", longest)
	printSuggestions(os.Stdout, e.planner.SuggestForSlot(ctx, date, longest, nil, e.cfg.Suggest.Limit))
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	var loc *suggest.Location
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		loc = &suggest.Location{Latitude: lat, Longitude: lon}
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = e.cfg.Suggest.Limit
	}

	ctx, cancel := signalContext()
	defer cancel()
	printSuggestions(os.Stdout, e.planner.Suggest(ctx, loc, limit))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	limit, _ := cmd.Flags().GetInt("limit")
	rows, err := e.planner.History(limit)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("No accepted suggestions yet.")
		return nil
	}
	for _, r := range rows {
		fmt.Printf("  %s  %s–%s  %-30s  %s\n", r.Date, r.Start, r.End, r.Title, r.Category)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating %s: %w", args[0], err)
	}
	if err := e.planner.Export(f, time.Now()); err != nil {
		f.Close()
		os.Remove(args[0])
		return fmt.Errorf("exporting: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Exported %d days to %s\n", len(e.planner.Dates("")), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext()
	defer cancel()

	rc, err := calendar.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer rc.Close()

	imp, err := calendar.Import(rc)
	if err != nil {
		return err
	}
	added, err := e.planner.Import(imp)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d of %d events (%d skipped as all-day or multi-day)\n", added, imp.Count(), imp.Skipped)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	listen, _ := cmd.Flags().GetString("listen")
	if listen == "" {
		listen = e.cfg.Server.Listen
	}

	srv := web.New(e.planner, web.Options{
		MinFreeMinutes: e.cfg.Planner.MinFreeMinutes,
		SummaryEvents:  e.cfg.Planner.SummaryEvents,
		SuggestLimit:   e.cfg.Suggest.Limit,
	}, e.logger)

	ctx, cancel := signalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(listen) }()
	fmt.Printf("Serving on http://%s\n", listen)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func runRemindStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Reminders.Enabled {
		return fmt.Errorf("reminders are disabled; set [reminders] enabled = true")
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	eventsPath, err := cfg.EventsPath()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return scheduler.New(cfg, eventsPath, logger).Run(ctx)
}

func runRemindStop(cmd *cobra.Command, args []string) error {
	pid, err := scheduler.ReadPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Printf("Sent stop signal to kalendr reminders (PID %d)\n", pid)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
