package deskshell

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.History.Enabled = false
	cfg.API.Listen = ""
	cfg.BrowserDelay = time.Hour
	cfg.ServerReadyFallback = time.Hour
	return cfg
}

func TestDefaultConfigIsRunnableShape(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DebugPort != 9222 || cfg.Server.URL == "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "deskshell.toml")
	data := "debug_port = 9333\n\n[server]\ncommand = \"srv\"\n"
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DebugPort != 9333 || cfg.Server.Command != "srv" {
		t.Fatalf("overrides lost: %+v", cfg)
	}
}

func TestFacadeStatusesAndRestart(t *testing.T) {
	a, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sts := a.Statuses()
	if len(sts) != 2 || sts[0].Role != RoleServer || sts[1].Role != RoleBrowser {
		t.Fatalf("unexpected statuses: %+v", sts)
	}
	if err := a.Restart(Role("mailer")); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestRunStartsServerAndStopsOnCancel(t *testing.T) {
	requireUnix(t)
	cfg := testConfig(t)
	cfg.Server.Command = "sleep"
	cfg.Server.Args = []string{"60"}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var mu sync.Mutex
	var started bool
	a.SetEventListener(func(e Event) {
		mu.Lock()
		if e.Channel == "py-started" {
			started = true
		}
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		ok := started
		mu.Unlock()
		if ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	mu.Lock()
	ok := started
	mu.Unlock()
	if !ok {
		cancel()
		t.Fatalf("server never reported started")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
	for _, st := range a.Statuses() {
		if st.Running {
			t.Fatalf("role %s still running after shutdown", st.Role)
		}
	}
}
