package history

import (
	"context"
	"time"
)

// Entry is a lifecycle record persisted for later inspection.
type Entry struct {
	OccurredAt time.Time `json:"occurred_at"`
	Role       string    `json:"role"`
	PID        int       `json:"pid"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
}

// Sink is a destination for lifecycle entries.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Entry) error
	Close() error
}
