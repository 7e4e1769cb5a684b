package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Storage   StorageConfig  `toml:"storage"`
	Planner   PlannerConfig  `toml:"planner"`
	POI       POIConfig      `toml:"poi"`
	Suggest   SuggestConfig  `toml:"suggest"`
	AI        AIConfig       `toml:"ai"`
	Reminders ReminderConfig `toml:"reminders"`
	Server    ServerConfig   `toml:"server"`
}

type StorageConfig struct {
	// EventsFile is the JSON file holding all events. Empty means
	// events.json inside the config directory.
	EventsFile string `toml:"events_file"`
}

type PlannerConfig struct {
	MinFreeMinutes int `toml:"min_free_minutes"`
	SummaryEvents  int `toml:"summary_events"` // events shown per grid cell
}

type POIConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SuggestConfig struct {
	Source          string  `toml:"source"` // "poi" | "openai" | "claude-cli"
	Latitude        float64 `toml:"latitude"`
	Longitude       float64 `toml:"longitude"`
	City            string  `toml:"city"`
	Limit           int     `toml:"limit"`
	CacheTTLMinutes int     `toml:"cache_ttl_minutes"`
}

type AIConfig struct {
	Model   string `toml:"model"`
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type ReminderConfig struct {
	Enabled     bool   `toml:"enabled"`
	Schedule    string `toml:"schedule"` // cron expression
	LeadMinutes int    `toml:"lead_minutes"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
}

func DefaultConfig() Config {
	return Config{
		Planner: PlannerConfig{
			MinFreeMinutes: 60,
			SummaryEvents:  2,
		},
		POI: POIConfig{
			TimeoutSeconds: 10,
		},
		Suggest: SuggestConfig{
			Source:          "poi",
			Latitude:        52.52,
			Longitude:       13.405,
			City:            "Berlin",
			Limit:           5,
			CacheTTLMinutes: 15,
		},
		AI: AIConfig{
			Model: "gpt-4o-mini",
		},
		Reminders: ReminderConfig{
			Enabled:     true,
			Schedule:    "* * * * *",
			LeadMinutes: 10,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8080",
		},
	}
}

func ConfigDir() (string, error) {
	if v := os.Getenv("KALENDR_CONFIG_DIR"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "kalendr"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KALENDR_EVENTS_FILE"); v != "" {
		cfg.Storage.EventsFile = v
	}
	if v := os.Getenv("KALENDR_POI_API_KEY"); v != "" {
		cfg.POI.APIKey = v
	}
	if v := os.Getenv("KALENDR_POI_BASE_URL"); v != "" {
		cfg.POI.BaseURL = v
	}
	if v := os.Getenv("KALENDR_SUGGEST_SOURCE"); v != "" {
		cfg.Suggest.Source = v
	}
	if v := os.Getenv("KALENDR_MIN_FREE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Planner.MinFreeMinutes = n
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
}

// EventsPath resolves the events file, defaulting to the config directory.
func (c *Config) EventsPath() (string, error) {
	if c.Storage.EventsFile != "" {
		return c.Storage.EventsFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "events.json"), nil
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteDefault writes the default config to path with an empty API key.
func WriteDefault(path string) error {
	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, out, 0600)
}
