package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loykin/deskshell/internal/event"
	"github.com/loykin/deskshell/internal/history"
	"github.com/loykin/deskshell/internal/logger"
	"github.com/loykin/deskshell/internal/metrics"
)

// DefaultShutdownTimeout bounds ShutdownAll so the hosting application never
// hangs on an unresponsive child.
const DefaultShutdownTimeout = time.Second

// reapWindow is the best-effort wait applied after a kill signal.
const reapWindow = 200 * time.Millisecond

// Options configures a Supervisor.
type Options struct {
	// Log configures rotating capture files mirroring child output.
	// Zero value disables capture.
	Log logger.Config
	// History receives lifecycle entries; nil disables persistence.
	History history.Sink
	// ShutdownTimeout bounds ShutdownAll; defaults to DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// handle is a running process instance owned by the Supervisor. Once
// detached its goroutines stop delivering events, so a successor handle for
// the same role never observes stale output.
type handle struct {
	cmd      *exec.Cmd
	pid      int
	waitDone chan struct{}
	detached atomic.Bool
	pumps    sync.WaitGroup
	outW     io.WriteCloser
	errW     io.WriteCloser
}

type roleState struct {
	h      *handle
	status Status
}

// Supervisor owns the lifecycle of the two managed roles. All handle
// mutation goes through Start/Stop/ShutdownAll; handles are never exposed.
// A misbehaving child surfaces as events, never as a supervisor failure.
type Supervisor struct {
	// lifecycleMu serializes Start/Stop/ShutdownAll so concurrent restart
	// commands cannot interleave and leave two live handles for a role.
	lifecycleMu sync.Mutex
	mu          sync.Mutex
	bus         *event.Bus
	opts        Options
	roles       map[event.Role]*roleState
}

func New(bus *event.Bus, opts Options) *Supervisor {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Supervisor{
		bus:   bus,
		opts:  opts,
		roles: make(map[event.Role]*roleState),
	}
}

func (s *Supervisor) state(role event.Role) *roleState {
	rs, ok := s.roles[role]
	if !ok {
		rs = &roleState{status: Status{Role: role}}
		s.roles[role] = rs
	}
	return rs
}

// Start launches a fresh process for role per spec. Any live handle for the
// role is fully retired first: its goroutines are detached and its process
// group killed, so exactly one live handle exists per role afterward.
// A spawn failure is reported as an error event and also returned.
func (s *Supervisor) Start(role event.Role, spec Spec) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	rs := s.state(role)
	old := s.retireLocked(rs)
	if old != nil {
		rs.status.Restarts++
	}
	s.mu.Unlock()
	if old != nil {
		metrics.IncRestart(string(role))
		s.awaitReap(old)
	}

	cmd := spec.buildCommand()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return s.spawnFailed(role, spec, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return s.spawnFailed(role, spec, err)
	}
	outW, errW := s.opts.Log.Writers(string(role))
	if err := cmd.Start(); err != nil {
		closeWriter(outW)
		closeWriter(errW)
		return s.spawnFailed(role, spec, err)
	}

	h := &handle{
		cmd:      cmd,
		pid:      cmd.Process.Pid,
		waitDone: make(chan struct{}),
		outW:     outW,
		errW:     errW,
	}
	now := time.Now()
	s.mu.Lock()
	rs.h = h
	rs.status.Running = true
	rs.status.PID = h.pid
	rs.status.StartedAt = now
	rs.status.StoppedAt = time.Time{}
	rs.status.LastError = ""
	s.mu.Unlock()

	metrics.IncStart(string(role))
	s.record(role, h.pid, "start", spec.Path)
	s.bus.Publish(event.Event{
		Role:    role,
		Kind:    event.KindInfo,
		Channel: event.StartedChannel(role),
		Message: fmt.Sprintf("%s started (pid %d)", role, h.pid),
	})
	slog.Info("process started", "role", role, "pid", h.pid, "path", spec.Path)

	h.pumps.Add(2)
	go s.pump(role, h, stdout, event.KindStdout, outW)
	go s.pump(role, h, stderr, event.KindStderr, errW)
	go s.waitFor(role, rs, h)
	return nil
}

func (s *Supervisor) spawnFailed(role event.Role, spec Spec, err error) error {
	msg := fmt.Sprintf("failed to start %s: %v", role, err)
	s.mu.Lock()
	rs := s.state(role)
	rs.status.Running = false
	rs.status.LastError = err.Error()
	s.mu.Unlock()
	s.record(role, 0, "error", msg)
	s.bus.Publish(event.Event{
		Role:    role,
		Kind:    event.KindError,
		Channel: event.OutputChannel(role),
		Message: msg,
	})
	slog.Error("process start failed", "role", role, "path", spec.Path, "error", err)
	return fmt.Errorf("start %s: %w", role, err)
}

// pump forwards one output stream line by line. Lines are mirrored to the
// capture writer even after detach; events stop at detach.
func (s *Supervisor) pump(role event.Role, h *handle, r io.Reader, kind event.Kind, w io.Writer) {
	defer h.pumps.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if w != nil {
			_, _ = fmt.Fprintln(w, line)
		}
		if h.detached.Load() {
			continue
		}
		metrics.IncEvent(string(role), string(kind))
		s.bus.Publish(event.Event{
			Role:    role,
			Kind:    kind,
			Channel: event.OutputChannel(role),
			Message: line,
		})
	}
}

// waitFor reaps the process and, unless the handle was retired, clears the
// role state and reports the exit upward. Both pumps must drain to EOF
// before Wait runs: Wait closes the pipes, which would discard any output
// still buffered in them, and draining first also orders the exit event
// after the last output event.
func (s *Supervisor) waitFor(role event.Role, rs *roleState, h *handle) {
	h.pumps.Wait()
	err := h.cmd.Wait()
	close(h.waitDone)
	closeWriter(h.outW)
	closeWriter(h.errW)
	if h.detached.Load() {
		return
	}

	code := 0
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		code = ee.ExitCode()
	}
	now := time.Now()
	s.mu.Lock()
	if rs.h == h {
		rs.h = nil
		rs.status.Running = false
		rs.status.StoppedAt = now
		if err != nil {
			rs.status.LastError = err.Error()
		}
	}
	s.mu.Unlock()

	metrics.IncStop(string(role))
	s.record(role, h.pid, "exit", fmt.Sprintf("exit code %d", code))
	s.bus.Publish(event.Event{
		Role:    role,
		Kind:    event.KindInfo,
		Channel: event.OutputChannel(role),
		Message: fmt.Sprintf("%s exited with code %d", role, code),
	})
	slog.Info("process exited", "role", role, "pid", h.pid, "code", code)
}

// retireLocked detaches and kills the current handle for rs, returning it
// (nil when none). Caller holds s.mu and is responsible for post-unlock
// bookkeeping on the returned handle.
func (s *Supervisor) retireLocked(rs *roleState) *handle {
	h := rs.h
	if h == nil {
		return nil
	}
	rs.h = nil
	h.detached.Store(true)
	killGroup(h.pid)
	rs.status.Running = false
	rs.status.StoppedAt = time.Now()
	return h
}

func (s *Supervisor) awaitReap(h *handle) {
	select {
	case <-h.waitDone:
	case <-time.After(reapWindow):
	}
}

// Stop sends an immediate forceful termination to role's process group and
// clears the handle. No grace period is granted; this is used for restarts
// and for application shutdown.
func (s *Supervisor) Stop(role event.Role) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	rs := s.state(role)
	h := s.retireLocked(rs)
	s.mu.Unlock()
	if h == nil {
		return
	}
	metrics.IncStop(string(role))
	s.record(role, h.pid, "stop", "killed")
	s.awaitReap(h)
	slog.Info("process stopped", "role", role, "pid", h.pid)
}

// ShutdownAll terminates both roles and returns once both processes have
// been confirmed reaped or the shutdown bound elapses, whichever comes
// first. The bound substitutes for a clean-exit guarantee.
func (s *Supervisor) ShutdownAll(ctx context.Context) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	var handles []*handle
	s.mu.Lock()
	for _, role := range []event.Role{event.RoleServer, event.RoleBrowser} {
		rs := s.state(role)
		if h := s.retireLocked(rs); h != nil {
			handles = append(handles, h)
			metrics.IncStop(string(role))
		}
	}
	s.mu.Unlock()

	deadline := time.After(s.opts.ShutdownTimeout)
	for _, h := range handles {
		select {
		case <-h.waitDone:
		case <-deadline:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Snapshot returns the current status of role.
func (s *Supervisor) Snapshot(role event.Role) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(role).status
}

// Statuses returns snapshots for both roles, server first.
func (s *Supervisor) Statuses() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []Status{
		s.state(event.RoleServer).status,
		s.state(event.RoleBrowser).status,
	}
}

func (s *Supervisor) record(role event.Role, pid int, kind, message string) {
	if s.opts.History == nil {
		return
	}
	e := history.Entry{
		OccurredAt: time.Now(),
		Role:       string(role),
		PID:        pid,
		Kind:       kind,
		Message:    message,
	}
	if err := s.opts.History.Send(context.Background(), e); err != nil {
		slog.Warn("history write failed", "role", role, "kind", kind, "error", err)
	}
}

func closeWriter(w io.WriteCloser) {
	if w != nil {
		_ = w.Close()
	}
}
