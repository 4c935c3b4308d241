// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Planner PlannerConfig `toml:"planner"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds HTTP settings for both `serve` and remote clients.
type ServerConfig struct {
	Addr          string `toml:"addr"`           // listen address, e.g. ":8080"
	Secret        string `toml:"secret"`         // token signing key; random per process when empty
	SecureCookies bool   `toml:"secure_cookies"` // set the Secure flag on auth cookies
	URL           string `toml:"url"`            // remote server used by the TUI and CLI (optional)
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Backend string `toml:"backend"`  // "sqlite" or "file"
	DBPath  string `toml:"db_path"`  // sqlite database
	DataDir string `toml:"data_dir"` // root of the file backend
}

// PlannerConfig holds planner defaults.
type PlannerConfig struct {
	User            string `toml:"user"`
	DefaultView     string `toml:"default_view"` // "day", "week" or "month"
	DefaultDays     int    `toml:"default_days"`
	Autosave        bool   `toml:"autosave"`
	AutosaveDelayMS int    `toml:"autosave_delay_ms"`
	HistoryLimit    int    `toml:"history_limit"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme   string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
	NoColor bool   `toml:"no_color"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			DBPath:  filepath.Join(dataDir(), "planboard.db"),
			DataDir: filepath.Join(dataDir(), "data"),
		},
		Planner: PlannerConfig{
			User:            defaultUser(),
			DefaultView:     "week",
			DefaultDays:     7,
			Autosave:        true,
			AutosaveDelayMS: 1500,
			HistoryLimit:    20,
		},
		UI: UIConfig{
			Theme: "frappe",
		},
		Log: LogConfig{
			File: filepath.Join(dataDir(), "logs", "planboard.log"),
		},
	}
}

// AutosaveDelay returns the debounce delay as a duration.
func (c *Config) AutosaveDelay() time.Duration {
	return time.Duration(c.Planner.AutosaveDelayMS) * time.Millisecond
}

// dataDir returns the default directory for databases and logs.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "planboard"
	}
	return filepath.Join(home, ".local", "share", "planboard")
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "planner"
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "planboard", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, loads .env files,
// then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env"); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// loadDotEnv loads the first existing .env file. Variables already set in the
// environment win over the file.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
		return nil
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	// Server overrides
	if v := os.Getenv("PLANBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PLANBOARD_SECRET"); v != "" {
		cfg.Server.Secret = v
	}
	if v := os.Getenv("PLANBOARD_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if err := envBool("PLANBOARD_SECURE_COOKIES", &cfg.Server.SecureCookies); err != nil {
		return err
	}

	// Storage overrides
	if v := os.Getenv("PLANBOARD_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("PLANBOARD_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("PLANBOARD_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	// Planner overrides
	if v := os.Getenv("PLANBOARD_USER"); v != "" {
		cfg.Planner.User = v
	}
	if err := envBool("PLANBOARD_AUTOSAVE", &cfg.Planner.Autosave); err != nil {
		return err
	}

	// UI overrides
	if v := os.Getenv("PLANBOARD_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.UI.NoColor = true
	}

	// Log overrides
	if err := envBool("PLANBOARD_DEBUG", &cfg.Log.Debug); err != nil {
		return err
	}
	if v := os.Getenv("PLANBOARD_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			return errors.New("db_path must be set")
		}
	case BackendFile:
		if c.Storage.DataDir == "" {
			return errors.New("data_dir must be set")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	switch c.Planner.DefaultView {
	case "day", "week", "month":
	default:
		return fmt.Errorf("invalid default_view: %q", c.Planner.DefaultView)
	}
	if c.Planner.DefaultDays < 1 || c.Planner.DefaultDays > 30 {
		return fmt.Errorf("default_days must be between 1 and 30, got %d", c.Planner.DefaultDays)
	}
	if c.Planner.AutosaveDelayMS <= 0 {
		return errors.New("autosave_delay_ms must be positive")
	}
	if c.Planner.HistoryLimit <= 0 {
		return errors.New("history_limit must be positive")
	}
	if c.Server.Addr == "" {
		return errors.New("server addr must be set")
	}
	return nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
