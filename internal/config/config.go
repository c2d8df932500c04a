package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the client needs to run. Values come from an
// optional YAML file, overridden by environment variables.
type Config struct {
	APIBaseURL  string        `yaml:"api_base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Environment string        `yaml:"environment"`
	LogLevel    slog.Level    `yaml:"-"`
	LogLevelRaw string        `yaml:"log_level"`
	LogFile     string        `yaml:"log_file"`
	SavesDir    string        `yaml:"saves_dir"`
}

// Load builds the configuration. Search order for the file:
// customPath -> ~/.fableterm/config.yaml -> ./config.yaml -> defaults.
func Load(customPath string) (*Config, error) {
	cfg := defaults()

	path := customPath
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".fableterm", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	return cfg, nil
}

func defaults() *Config {
	savesDir := "saves"
	if home, err := os.UserHomeDir(); err == nil {
		savesDir = filepath.Join(home, ".fableterm", "saves")
	}
	return &Config{
		APIBaseURL:  "http://localhost:8080",
		Timeout:     30 * time.Second,
		Environment: "development",
		LogLevelRaw: "info",
		LogFile:     "fableterm.log",
		SavesDir:    savesDir,
	}
}

func applyEnv(cfg *Config) {
	cfg.APIBaseURL = getEnv("API_BASE_URL", cfg.APIBaseURL)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevelRaw = getEnv("LOG_LEVEL", cfg.LogLevelRaw)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.SavesDir = getEnv("SAVES_DIR", cfg.SavesDir)
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
