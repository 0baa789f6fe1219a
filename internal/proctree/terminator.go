package proctree

import (
	"errors"
	"log/slog"
	"time"

	"github.com/loykin/procward/internal/metrics"
)

// Escalation timing. Graceful wait is 6 polls of 500ms (3s), forced wait 4
// polls (2s); a process alive after both is reported stuck.
const (
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultGracefulPolls = 6
	DefaultForcedPolls   = 4
)

// ErrStuckAlive reports a process that survived the forced signal. The
// caller decides whether a later cycle retries; this component never does.
var ErrStuckAlive = errors.New("process still alive after forced termination")

// Terminator walks a process tree through the termination state machine:
// Alive -> TermSent -> WaitingGraceful -> (Dead | KillSent) ->
// WaitingForced -> (Dead | StuckAlive).
type Terminator struct {
	Ops Ops

	// Zero values fall back to the defaults above. Tests shrink these.
	PollInterval  time.Duration
	GracefulPolls int
	ForcedPolls   int
}

func NewTerminator(ops Ops) *Terminator { return &Terminator{Ops: ops} }

func (t *Terminator) pollInterval() time.Duration {
	if t.PollInterval > 0 {
		return t.PollInterval
	}
	return DefaultPollInterval
}

func (t *Terminator) gracefulPolls() int {
	if t.GracefulPolls > 0 {
		return t.GracefulPolls
	}
	return DefaultGracefulPolls
}

func (t *Terminator) forcedPolls() int {
	if t.ForcedPolls > 0 {
		return t.ForcedPolls
	}
	return DefaultForcedPolls
}

// KillTree terminates pid and all of its descendants, escalating from the
// graceful to the forceful signal. Descendants are signaled before the root
// so the parent cannot respawn replacements mid-kill. Individual delivery
// errors are swallowed: a child exiting between enumeration and signaling is
// routine. Returns nil once the root is gone, ErrStuckAlive otherwise.
func (t *Terminator) KillTree(pid int) error {
	if !t.Ops.Exists(pid) {
		return nil
	}

	descendants := t.Ops.Descendants(pid)
	for _, child := range descendants {
		_ = t.Ops.Terminate(child)
	}
	_ = t.Ops.Terminate(pid)

	if t.waitGone(pid, t.gracefulPolls()) {
		slog.Debug("process tree terminated gracefully", "pid", pid, "descendants", len(descendants))
		return nil
	}

	slog.Warn("graceful termination window elapsed, escalating", "pid", pid)
	metrics.IncKillEscalation()
	for _, child := range descendants {
		_ = t.Ops.Kill(child)
	}
	_ = t.Ops.Kill(pid)

	if t.waitGone(pid, t.forcedPolls()) {
		slog.Debug("process tree killed after escalation", "pid", pid)
		return nil
	}

	slog.Error("process survived forced termination", "pid", pid)
	metrics.IncStuckAlive()
	return ErrStuckAlive
}

// waitGone polls Exists up to attempts times, one poll interval apart.
func (t *Terminator) waitGone(pid int, attempts int) bool {
	for i := 0; i < attempts; i++ {
		time.Sleep(t.pollInterval())
		if !t.Ops.Exists(pid) {
			return true
		}
	}
	return false
}
