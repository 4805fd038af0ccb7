package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/loykin/deskshell/internal/browser"
	"github.com/loykin/deskshell/internal/config"
	"github.com/loykin/deskshell/internal/event"
	"github.com/loykin/deskshell/internal/history"
	"github.com/loykin/deskshell/internal/history/sqlite"
	"github.com/loykin/deskshell/internal/metrics"
	"github.com/loykin/deskshell/internal/probe"
	"github.com/loykin/deskshell/internal/profile"
	"github.com/loykin/deskshell/internal/server"
	"github.com/loykin/deskshell/internal/supervisor"
)

// App wires the provisioner, resolver, supervisor, probe and bridge into the
// startup sequence: output dirs, server process, delayed browser launch,
// readiness probe, fallback timer. It also serves the control API and
// handles restart commands by recomputing specs from scratch.
type App struct {
	cfg      *config.Config
	bus      *event.Bus
	sup      *supervisor.Supervisor
	resolver *browser.Resolver
	hist     history.Sink

	mu             sync.Mutex
	listener       func(event.Event)
	serverReady    bool
	cancelFallback func()
	browserTimer   *time.Timer
	probeTimer     *time.Timer
}

// New builds the app, provisioning output directories and opening the
// history sink up front.
func New(cfg *config.Config) (*App, error) {
	if err := profile.EnsureOutputDirs(cfg.OutputDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.CaptureDir(), 0o750); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}

	var hist history.Sink
	if cfg.History.Enabled {
		sink, err := sqlite.New(cfg.HistoryDSN())
		if err != nil {
			// History is an amenity; the shell runs without it.
			slog.Warn("history sink unavailable", "dsn", cfg.HistoryDSN(), "error", err)
		} else {
			hist = sink
		}
	}

	capture := cfg.Capture
	capture.Dir = cfg.CaptureDir()

	bus := event.NewBus()
	sup := supervisor.New(bus, supervisor.Options{
		Log:             capture,
		History:         hist,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	a := &App{
		cfg:      cfg,
		bus:      bus,
		sup:      sup,
		resolver: browser.NewResolver(nil),
		hist:     hist,
	}
	bus.SetSink(a.onEvent)
	bus.SetRestarter(a)
	return a, nil
}

// Bus exposes the event bridge for embedding hosts.
func (a *App) Bus() *event.Bus { return a.bus }

// Statuses implements server.StatusProvider.
func (a *App) Statuses() []supervisor.Status { return a.sup.Statuses() }

// SetEventListener attaches the upstream UI sink.
func (a *App) SetEventListener(fn func(event.Event)) {
	a.mu.Lock()
	a.listener = fn
	a.mu.Unlock()
}

// onEvent is the bus sink: it mirrors every event to the external listener
// and watches server stdout for the ready marker.
func (a *App) onEvent(e event.Event) {
	if e.Role == event.RoleServer && e.Kind == event.KindStdout {
		marker := a.cfg.Server.ReadyMarker
		if marker != "" && strings.Contains(e.Message, marker) {
			a.markServerReady("log marker")
		}
	}
	a.mu.Lock()
	fn := a.listener
	a.mu.Unlock()
	if fn != nil {
		fn(e)
	}
}

// markServerReady emits py-ready exactly once per server run and cancels the
// fallback timer.
func (a *App) markServerReady(source string) {
	a.mu.Lock()
	if a.serverReady {
		a.mu.Unlock()
		return
	}
	a.serverReady = true
	cancel := a.cancelFallback
	a.cancelFallback = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	slog.Info("server ready", "source", source, "url", a.cfg.Server.URL)
	a.bus.Publish(event.Event{
		Role:    event.RoleServer,
		Kind:    event.KindInfo,
		Channel: event.ChannelServerReady,
		Message: a.cfg.Server.URL,
	})
}

// StartServerProcess resolves paths fresh and launches the web-server
// process with the desktop environment contract, then arms the time-based
// fallback ready signal.
func (a *App) StartServerProcess() error {
	if a.cfg.Server.Command == "" {
		return fmt.Errorf("server.command is not configured")
	}

	chromePath, _ := a.browserPath()
	family := browser.DetectFamily(chromePath)
	dataDir := profile.EnsureUserDataDir(family, a.resolver.UserDataDir(family))

	spec := supervisor.Spec{
		Path: a.cfg.Server.Command,
		Args: a.cfg.Server.Args,
		Dir:  a.cfg.Server.WorkDir,
		Env: map[string]string{
			"BROWSER_USE_DESKTOP_APP": "true",
			"CHROME_PATH":             chromePath,
			"CHROME_CDP":              fmt.Sprintf("http://%s:%d", a.cfg.DebugHost, a.cfg.DebugPort),
			"CHROME_USER_DATA":        dataDir,
		},
	}

	a.mu.Lock()
	a.serverReady = false
	if a.cancelFallback != nil {
		a.cancelFallback()
	}
	a.cancelFallback = probe.ScheduleFallbackReady(a.cfg.ServerReadyFallback, func() {
		a.markServerReady("fallback timer")
	})
	a.mu.Unlock()

	return a.sup.Start(event.RoleServer, spec)
}

// StartBrowserProcess resolves the browser executable fresh and launches it
// attached to the debug port. A missing executable aborts the start with an
// error event and no spawn.
func (a *App) StartBrowserProcess() error {
	path, ok := a.browserPath()
	if !ok {
		msg := "no supported browser found; install Google Chrome or Microsoft Edge"
		a.bus.Publish(event.Event{
			Role:    event.RoleBrowser,
			Kind:    event.KindError,
			Channel: event.ChannelBrowserOutput,
			Message: msg,
		})
		return fmt.Errorf("%s", msg)
	}

	family := browser.DetectFamily(path)
	dataDir := profile.EnsureUserDataDir(family, a.resolver.UserDataDir(family))
	startURL := a.cfg.Browser.StartURL
	if startURL == "" {
		startURL = a.cfg.Server.URL
	}

	spec := supervisor.Spec{
		Path: path,
		Args: browser.LaunchArgs(runtime.GOOS, a.cfg.DebugPort, dataDir, startURL),
	}
	if err := a.sup.Start(event.RoleBrowser, spec); err != nil {
		return err
	}
	a.scheduleProbe()
	return nil
}

func (a *App) browserPath() (string, bool) {
	if p := a.cfg.Browser.Path; p != "" {
		return p, true
	}
	return a.resolver.FindExecutable()
}

// scheduleProbe arms the one-shot debug endpoint check.
func (a *App) scheduleProbe() {
	a.mu.Lock()
	if a.probeTimer != nil {
		a.probeTimer.Stop()
	}
	a.probeTimer = time.AfterFunc(a.cfg.ProbeDelay, func() {
		res := probe.DebugEndpoint(context.Background(),
			a.cfg.DebugHost, a.cfg.DebugPort, a.cfg.ProbePath, a.cfg.ProbeTimeout)
		kind := event.KindInfo
		if !res.Ready {
			kind = event.KindWarning
		}
		a.bus.Publish(event.Event{
			Role:    event.RoleBrowser,
			Kind:    kind,
			Channel: event.ChannelBrowserOutput,
			Message: res.Message(),
		})
	})
	a.mu.Unlock()
}

// Restart implements event.Restarter: tear down and relaunch the named role
// with freshly recomputed specs.
func (a *App) Restart(role event.Role) error {
	slog.Info("restart requested", "role", role)
	switch role {
	case event.RoleServer:
		return a.StartServerProcess()
	case event.RoleBrowser:
		return a.StartBrowserProcess()
	default:
		return fmt.Errorf("unknown role %q", role)
	}
}

// Run executes the full lifecycle: start the server process, launch the
// browser after the configured delay, serve the control API, then tear
// everything down when ctx is canceled. Child failures surface as events and
// never abort Run.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Server.Command == "" {
		return fmt.Errorf("server.command is not configured")
	}
	if err := a.StartServerProcess(); err != nil {
		// Already reported as an error event; the shell stays up so the
		// operator can fix the server and trigger a restart.
		slog.Warn("server start failed", "error", err)
	}

	a.mu.Lock()
	a.browserTimer = time.AfterFunc(a.cfg.BrowserDelay, func() {
		// Best-effort ordering: the server got a head start, nothing more.
		if err := a.StartBrowserProcess(); err != nil {
			slog.Warn("browser start failed", "error", err)
		}
	})
	a.mu.Unlock()

	var api *http.Server
	if a.cfg.API.Listen != "" {
		var err error
		api, err = server.NewServer(a.cfg.API.Listen, "/api", a.bus, a)
		if err != nil {
			return fmt.Errorf("control api: %w", err)
		}
		slog.Info("control api listening", "addr", a.cfg.API.Listen)
	}

	var metricsSrv *http.Server
	if a.cfg.Metrics.Enabled && a.cfg.Metrics.Listen != "" {
		if err := metrics.RegisterDefault(); err != nil {
			slog.Warn("metrics registration failed", "error", err)
		} else {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			metricsSrv = &http.Server{Addr: a.cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			go func() { _ = metricsSrv.ListenAndServe() }()
			slog.Info("metrics listening", "addr", a.cfg.Metrics.Listen)
		}
	}

	<-ctx.Done()
	a.Shutdown()
	if api != nil {
		_ = api.Close()
	}
	if metricsSrv != nil {
		_ = metricsSrv.Close()
	}
	return nil
}

// Shutdown stops pending timers, terminates both roles within the shutdown
// bound and closes the history sink.
func (a *App) Shutdown() {
	a.mu.Lock()
	if a.browserTimer != nil {
		a.browserTimer.Stop()
	}
	if a.probeTimer != nil {
		a.probeTimer.Stop()
	}
	if a.cancelFallback != nil {
		a.cancelFallback()
		a.cancelFallback = nil
	}
	a.mu.Unlock()

	a.sup.ShutdownAll(context.Background())
	if a.hist != nil {
		_ = a.hist.Close()
	}
}
