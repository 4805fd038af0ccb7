package deskshell

import (
	"context"

	"github.com/loykin/deskshell/internal/app"
	"github.com/loykin/deskshell/internal/browser"
	cfg "github.com/loykin/deskshell/internal/config"
	"github.com/loykin/deskshell/internal/event"
	"github.com/loykin/deskshell/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type Event = event.Event

type Role = event.Role

type Status = supervisor.Status

type Family = browser.Family

const (
	RoleServer  = event.RoleServer
	RoleBrowser = event.RoleBrowser
)

// App is a thin facade over internal/app.App providing a stable public API
// for embedding the shell in a host window runtime.
type App struct{ inner *app.App }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config { return cfg.Default() }

// LoadConfig reads a TOML config file, applying defaults for unset keys.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// New provisions directories and builds a ready-to-run App.
func New(c *Config) (*App, error) {
	inner, err := app.New(c)
	if err != nil {
		return nil, err
	}
	return &App{inner: inner}, nil
}

// Run executes the full lifecycle until ctx is canceled.
func (a *App) Run(ctx context.Context) error { return a.inner.Run(ctx) }

// SetEventListener attaches the upstream UI event sink.
func (a *App) SetEventListener(fn func(Event)) { a.inner.SetEventListener(fn) }

// Restart tears down and relaunches the named role with a fresh spec.
func (a *App) Restart(role Role) error { return a.inner.Restart(role) }

// Statuses returns snapshots for both roles, server first.
func (a *App) Statuses() []Status { return a.inner.Statuses() }
