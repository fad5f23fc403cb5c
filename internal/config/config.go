package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	DB        DBConfig        `yaml:"db" toml:"db"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Browser   BrowserConfig   `yaml:"browser" toml:"browser"`
	Vote      VoteConfig      `yaml:"vote" toml:"vote"`
	Schedule  ScheduleConfig  `yaml:"schedule" toml:"schedule"`
}

type ServerConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" toml:"mode"` // "stdio" or "http"
}

type DBConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type BrowserConfig struct {
	Headless    bool   `yaml:"headless" toml:"headless"`
	ExecPath    string `yaml:"exec_path" toml:"exec_path"`
	UserDataDir string `yaml:"user_data_dir" toml:"user_data_dir"`
}

// VoteConfig holds the runner timings. Values are Go duration strings in files.
type VoteConfig struct {
	TabLifetime       Duration `yaml:"tab_lifetime" toml:"tab_lifetime"`
	InterProjectDelay Duration `yaml:"inter_project_delay" toml:"inter_project_delay"`
	MinHumanDelay     Duration `yaml:"min_human_delay" toml:"min_human_delay"`
	MaxHumanDelay     Duration `yaml:"max_human_delay" toml:"max_human_delay"`
}

type ScheduleConfig struct {
	RolloverInterval Duration `yaml:"rollover_interval" toml:"rollover_interval"`
	// BatchInterval of zero disables the periodic batch alarm.
	BatchInterval Duration `yaml:"batch_interval" toml:"batch_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Vote: VoteConfig{
			TabLifetime:       Duration(10 * time.Second),
			InterProjectDelay: Duration(2 * time.Second),
			MinHumanDelay:     Duration(2 * time.Second),
			MaxHumanDelay:     Duration(5 * time.Second),
		},
		Schedule: ScheduleConfig{
			RolloverInterval: Duration(24 * time.Hour),
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML or TOML file and
// environment variables, in that order of increasing precedence.
func Load() (Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("AUTOVOTE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q (expected stdio or http)", c.Transport.Mode)
	}
	if c.Vote.MaxHumanDelay < c.Vote.MinHumanDelay {
		return fmt.Errorf("vote.max_human_delay (%s) is below vote.min_human_delay (%s)", c.Vote.MaxHumanDelay, c.Vote.MinHumanDelay)
	}
	if c.Schedule.RolloverInterval <= 0 {
		return fmt.Errorf("schedule.rollover_interval must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("AUTOVOTE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("AUTOVOTE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid AUTOVOTE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("AUTOVOTE_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if dbPath := os.Getenv("AUTOVOTE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("AUTOVOTE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("AUTOVOTE_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	if headless := os.Getenv("AUTOVOTE_BROWSER_HEADLESS"); headless != "" {
		v, err := strconv.ParseBool(headless)
		if err != nil {
			return fmt.Errorf("invalid AUTOVOTE_BROWSER_HEADLESS: %w", err)
		}
		cfg.Browser.Headless = v
	}
	if execPath := os.Getenv("AUTOVOTE_BROWSER_EXEC_PATH"); execPath != "" {
		cfg.Browser.ExecPath = execPath
	}
	if dir := os.Getenv("AUTOVOTE_BROWSER_USER_DATA_DIR"); dir != "" {
		cfg.Browser.UserDataDir = dir
	}
	if interval := os.Getenv("AUTOVOTE_BATCH_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid AUTOVOTE_BATCH_INTERVAL: %w", err)
		}
		cfg.Schedule.BatchInterval = Duration(d)
	}
	return nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "autovote.db"
	}
	return filepath.Join(dir, "autovote", "autovote.db")
}
