package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/deskshell/internal/logger"
)

// Config is the top-level TOML structure. Every timing constant the shell
// uses is configurable here; the defaults mirror the historical fixed values.
type Config struct {
	OutputDir string `toml:"output_dir" mapstructure:"output_dir"`

	DebugHost string `toml:"debug_host" mapstructure:"debug_host"`
	DebugPort int    `toml:"debug_port" mapstructure:"debug_port"`
	ProbePath string `toml:"probe_path" mapstructure:"probe_path"`

	BrowserDelay        time.Duration `toml:"browser_delay" mapstructure:"browser_delay"`
	ProbeDelay          time.Duration `toml:"probe_delay" mapstructure:"probe_delay"`
	ProbeTimeout        time.Duration `toml:"probe_timeout" mapstructure:"probe_timeout"`
	ServerReadyFallback time.Duration `toml:"server_ready_fallback" mapstructure:"server_ready_fallback"`
	ShutdownTimeout     time.Duration `toml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	LogLevel string `toml:"log_level" mapstructure:"log_level"`
	LogColor bool   `toml:"log_color" mapstructure:"log_color"`

	Capture logger.Config `toml:"capture" mapstructure:"capture"`

	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Browser BrowserConfig `toml:"browser" mapstructure:"browser"`
	API     APIConfig     `toml:"api" mapstructure:"api"`
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`
	History HistoryConfig `toml:"history" mapstructure:"history"`
}

// ServerConfig describes the managed web-server process.
type ServerConfig struct {
	Command     string   `toml:"command" mapstructure:"command"`
	Args        []string `toml:"args" mapstructure:"args"`
	WorkDir     string   `toml:"workdir" mapstructure:"workdir"`
	URL         string   `toml:"url" mapstructure:"url"`
	ReadyMarker string   `toml:"ready_marker" mapstructure:"ready_marker"`
}

// BrowserConfig describes overrides for the managed browser process.
type BrowserConfig struct {
	Path     string `toml:"path" mapstructure:"path"`
	StartURL string `toml:"start_url" mapstructure:"start_url"`
}

// APIConfig configures the loopback control listener.
type APIConfig struct {
	Listen string `toml:"listen" mapstructure:"listen"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

// HistoryConfig configures lifecycle-event persistence. An empty DSN means
// <output_dir>/history/deskshell.db.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	DSN     string `toml:"dsn" mapstructure:"dsn"`
}

// Default returns the built-in configuration.
func Default() *Config {
	out := "deskshell"
	if home, err := os.UserHomeDir(); err == nil {
		out = filepath.Join(home, ".deskshell")
	}
	return &Config{
		OutputDir:           out,
		DebugHost:           "localhost",
		DebugPort:           9222,
		ProbePath:           "/json/version",
		BrowserDelay:        time.Second,
		ProbeDelay:          2 * time.Second,
		ProbeTimeout:        2 * time.Second,
		ServerReadyFallback: 10 * time.Second,
		ShutdownTimeout:     time.Second,
		LogLevel:            "info",
		LogColor:            true,
		Server: ServerConfig{
			URL:         "http://localhost:8000",
			ReadyMarker: "Application startup complete",
		},
		API:     APIConfig{Listen: "127.0.0.1:9221"},
		History: HistoryConfig{Enabled: true},
	}
}

// Load reads a TOML config from path, applying defaults for any key left
// unset. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(filepath.Clean(path))
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// HistoryDSN resolves the effective history database location.
func (c *Config) HistoryDSN() string {
	if c.History.DSN != "" {
		return c.History.DSN
	}
	return filepath.Join(c.OutputDir, "history", "deskshell.db")
}

// CaptureDir resolves the effective capture directory for child output.
func (c *Config) CaptureDir() string {
	if c.Capture.Dir != "" {
		return c.Capture.Dir
	}
	return filepath.Join(c.OutputDir, "logs")
}
