package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.DebugPort != 9222 {
		t.Fatalf("debug port default = %d", cfg.DebugPort)
	}
	if cfg.BrowserDelay != time.Second || cfg.ServerReadyFallback != 10*time.Second {
		t.Fatalf("delay defaults wrong: %+v", cfg)
	}
	if cfg.ShutdownTimeout != time.Second || cfg.ProbeDelay != 2*time.Second {
		t.Fatalf("timeout defaults wrong: %+v", cfg)
	}
	if cfg.ProbePath != "/json/version" {
		t.Fatalf("probe path default = %q", cfg.ProbePath)
	}
	if !cfg.History.Enabled {
		t.Fatalf("history should default on")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DebugHost != "localhost" {
		t.Fatalf("unexpected %+v", cfg)
	}
}

func TestLoadTOMLOverrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "deskshell.toml")
	data := `
output_dir = "/var/lib/deskshell"
debug_port = 9333
browser_delay = "250ms"
server_ready_fallback = "3s"

[server]
command = "/usr/local/bin/app-server"
args = ["--port", "8000"]
workdir = "/srv/app"
url = "http://localhost:8000"

[browser]
path = "/usr/bin/chromium"

[api]
listen = "127.0.0.1:9444"

[history]
enabled = false
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OutputDir != "/var/lib/deskshell" || cfg.DebugPort != 9333 {
		t.Fatalf("top-level overrides lost: %+v", cfg)
	}
	if cfg.BrowserDelay != 250*time.Millisecond || cfg.ServerReadyFallback != 3*time.Second {
		t.Fatalf("duration parsing failed: %+v", cfg)
	}
	if cfg.Server.Command != "/usr/local/bin/app-server" || len(cfg.Server.Args) != 2 {
		t.Fatalf("server section lost: %+v", cfg.Server)
	}
	if cfg.Browser.Path != "/usr/bin/chromium" {
		t.Fatalf("browser section lost: %+v", cfg.Browser)
	}
	if cfg.API.Listen != "127.0.0.1:9444" {
		t.Fatalf("api section lost: %+v", cfg.API)
	}
	if cfg.History.Enabled {
		t.Fatalf("history override lost")
	}
	// Keys absent from the file keep defaults.
	if cfg.ProbeDelay != 2*time.Second || cfg.DebugHost != "localhost" {
		t.Fatalf("defaults clobbered: %+v", cfg)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "/data/out"
	if got := cfg.HistoryDSN(); got != filepath.Join("/data/out", "history", "deskshell.db") {
		t.Fatalf("history dsn %q", got)
	}
	cfg.History.DSN = ":memory:"
	if got := cfg.HistoryDSN(); got != ":memory:" {
		t.Fatalf("explicit dsn ignored: %q", got)
	}
	if got := cfg.CaptureDir(); got != filepath.Join("/data/out", "logs") {
		t.Fatalf("capture dir %q", got)
	}
}
