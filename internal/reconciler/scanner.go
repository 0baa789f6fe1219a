package reconciler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/loykin/procward/internal/history"
	"github.com/loykin/procward/internal/metrics"
)

// ScanResult is the outcome of one unregistered-orphan scan.
type ScanResult struct {
	Found  int   `json:"found"`
	Killed int   `json:"killed"`
	Pids   []int `json:"pids"`
}

// Scan catches workers that were spawned but never registered (for example
// a crash between spawn and the register call), which the registry-driven
// Reconcile cannot see. It enumerates all processes carrying the worker
// signature and kills any that are neither registered nor inside an active
// workspace's descendant closure.
func (r *Reconciler) Scan(activeIDs []string) ScanResult {
	res := ScanResult{Pids: []int{}}
	if r.Signature == "" {
		return res
	}

	reg := r.Store.Load()
	active := toSet(activeIDs)

	registered := make(map[int]bool, len(reg.Workspaces))
	protected := make(map[int]bool)
	for id, rec := range reg.Workspaces {
		registered[rec.PID] = true
		if !active[id] {
			continue
		}
		// Legitimate children of an active worker are never orphans.
		protected[rec.PID] = true
		for _, child := range r.Ops.Descendants(rec.PID) {
			protected[child] = true
		}
	}

	candidates := r.Ops.ListBySignature(r.Signature)
	sort.Ints(candidates)
	for _, pid := range candidates {
		if registered[pid] || protected[pid] {
			continue
		}
		res.Found++
		res.Pids = append(res.Pids, pid)
		if err := r.Terminator.KillTree(pid); err != nil {
			slog.Error("unregistered orphan survived termination", "pid", pid)
			r.emitOrphan(history.EventKillFailed, pid)
			continue
		}
		res.Killed++
		slog.Info("killed unregistered orphan", "pid", pid)
		r.emitOrphan(history.EventOrphanKilled, pid)
	}

	metrics.AddOrphansFound(res.Found)
	metrics.AddOrphansKilled(res.Killed)
	return res
}

func (r *Reconciler) emitOrphan(t history.EventType, pid int) {
	if r.Sink == nil {
		return
	}
	e := history.Event{Type: t, OccurredAt: time.Now().UTC(), PID: pid}
	if err := r.Sink.Send(context.Background(), e); err != nil {
		slog.Warn("history sink rejected event", "type", t, "error", err)
	}
}
