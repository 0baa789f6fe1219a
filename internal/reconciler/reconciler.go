package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/loykin/procward/internal/history"
	"github.com/loykin/procward/internal/metrics"
	"github.com/loykin/procward/internal/proctree"
	"github.com/loykin/procward/internal/registry"
)

// Reconciler drives registry entries back into agreement with OS reality.
// It never signals a workspace the caller reports as actively managed.
type Reconciler struct {
	Store      *registry.Store
	Ops        proctree.Ops
	Terminator *proctree.Terminator

	// Signature identifies this application's worker processes in the OS
	// process table; the orphan scan is disabled while it is empty.
	Signature string

	// Sink, when set, receives an audit event per prune/kill. Optional.
	Sink history.Sink
}

// Result is the outcome of one registry reconciliation pass.
type Result struct {
	Cleaned    int   `json:"cleaned"`
	Failed     int   `json:"failed"`
	FailedPids []int `json:"failedPids"`
}

func New(store *registry.Store, ops proctree.Ops) *Reconciler {
	return &Reconciler{
		Store:      store,
		Ops:        ops,
		Terminator: proctree.NewTerminator(ops),
	}
}

// Reconcile walks the registry and terminates or prunes every entry not in
// activeIDs. Entries are collected first and deleted against a fresh load at
// the end, so a workspace registered while the pass runs survives it.
func (r *Reconciler) Reconcile(activeIDs []string) Result {
	res := Result{FailedPids: []int{}}
	reg := r.Store.Load()
	if len(reg.Workspaces) == 0 {
		return res
	}
	active := toSet(activeIDs)

	var processed []string
	for id, rec := range reg.Workspaces {
		if active[id] {
			continue
		}
		if !r.Ops.Exists(rec.PID) {
			processed = append(processed, id)
			res.Cleaned++
			slog.Info("pruned dead workspace entry", "workspace", id, "pid", rec.PID)
			r.emit(history.EventPruned, id, rec)
			continue
		}
		// Alive but no longer managed: kill its tree. The entry is pruned
		// regardless of outcome so a stuck pid is not retried every tick.
		err := r.Terminator.KillTree(rec.PID)
		processed = append(processed, id)
		if err != nil {
			res.Failed++
			res.FailedPids = append(res.FailedPids, rec.PID)
			slog.Error("orphaned workspace process survived termination", "workspace", id, "pid", rec.PID)
			r.emit(history.EventKillFailed, id, rec)
			continue
		}
		res.Cleaned++
		slog.Info("terminated orphaned workspace process", "workspace", id, "pid", rec.PID)
		r.emit(history.EventKilled, id, rec)
	}

	// Fresh load before deleting: only the ids processed above are removed.
	r.Store.Remove(processed)

	metrics.AddReconcileCleaned(res.Cleaned)
	metrics.AddReconcileFailed(res.Failed)
	return res
}

func (r *Reconciler) emit(t history.EventType, workspace string, rec registry.TrackedProcess) {
	if r.Sink == nil {
		return
	}
	e := history.Event{
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Workspace:  workspace,
		PID:        rec.PID,
		Folder:     rec.Folder,
	}
	if err := r.Sink.Send(context.Background(), e); err != nil {
		slog.Warn("history sink rejected event", "type", t, "error", err)
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
