package supervisor

import (
	"time"

	"github.com/loykin/deskshell/internal/event"
)

// Status is a point-in-time snapshot of one role's state.
type Status struct {
	Role      event.Role `json:"role"`
	Running   bool       `json:"running"`
	PID       int        `json:"pid"`
	StartedAt time.Time  `json:"started_at"`
	StoppedAt time.Time  `json:"stopped_at"`
	Restarts  int        `json:"restarts"`
	LastError string     `json:"last_error,omitempty"`
}
