package event

import (
	"fmt"
	"sync"
	"time"
)

// Command is an inbound request relayed from the UI layer.
type Command string

const (
	CommandRestartServer  Command = "restart-python"
	CommandRestartBrowser Command = "restart-chrome"
)

// Restarter tears down and relaunches the named role with a freshly
// recomputed spec. Implemented by the app layer.
type Restarter interface {
	Restart(role Role) error
}

// Bus forwards events to a single external sink and relays restart commands
// back to the supervisor side. Events are fire-and-forget: with no sink
// attached they are dropped.
type Bus struct {
	mu        sync.RWMutex
	sink      func(Event)
	restarter Restarter
}

func NewBus() *Bus { return &Bus{} }

// SetSink attaches the upstream consumer. Passing nil detaches it.
func (b *Bus) SetSink(fn func(Event)) {
	b.mu.Lock()
	b.sink = fn
	b.mu.Unlock()
}

func (b *Bus) SetRestarter(r Restarter) {
	b.mu.Lock()
	b.restarter = r
	b.mu.Unlock()
}

// Publish forwards e to the sink, stamping the time if unset.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	sink := b.sink
	b.mu.RUnlock()
	if sink != nil {
		sink(e)
	}
}

// Dispatch relays an inbound command to the registered restarter.
func (b *Bus) Dispatch(cmd Command) error {
	b.mu.RLock()
	r := b.restarter
	b.mu.RUnlock()
	if r == nil {
		return fmt.Errorf("no restarter registered")
	}
	switch cmd {
	case CommandRestartServer:
		return r.Restart(RoleServer)
	case CommandRestartBrowser:
		return r.Restart(RoleBrowser)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
