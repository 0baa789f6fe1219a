package history

import (
	"context"
	"time"
)

// EventType defines the kind of reap event.
type EventType string

const (
	// EventPruned records a registry entry removed because its process was
	// already gone.
	EventPruned EventType = "pruned"
	// EventKilled records a tracked process terminated by a reconciliation
	// pass.
	EventKilled EventType = "killed"
	// EventKillFailed records a process that survived forced termination.
	EventKillFailed EventType = "kill_failed"
	// EventOrphanKilled records an unregistered orphan terminated by the
	// signature scanner.
	EventOrphanKilled EventType = "orphan_killed"
)

// Event is one supervisory action exported to audit/analytics systems.
// Workspace and Folder are empty for unregistered orphans.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Workspace  string    `json:"workspace,omitempty"`
	PID        int       `json:"pid"`
	Folder     string    `json:"folder,omitempty"`
}

// Sink is a destination for reap events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
