package reconciler

import (
	"sort"
	"time"
)

// RunningWorkspace is one registered entry joined with current liveness.
type RunningWorkspace struct {
	Workspace string    `json:"workspace"`
	PID       int       `json:"pid"`
	Folder    string    `json:"folder"`
	StartedAt time.Time `json:"startedAt"`
	Running   bool      `json:"running"`
}

// RunningReport pairs the registry view with the pids of signature-matching
// processes that no registry entry accounts for.
type RunningReport struct {
	Registered   []RunningWorkspace `json:"registered"`
	Unregistered []int              `json:"unregistered"`
}

// Running reports every registered workspace with a fresh liveness probe,
// plus any enumerated worker pids that are not registered at all. Read-only:
// nothing is signaled or pruned.
func (r *Reconciler) Running() RunningReport {
	report := RunningReport{Registered: []RunningWorkspace{}, Unregistered: []int{}}
	reg := r.Store.Load()

	registered := make(map[int]bool, len(reg.Workspaces))
	for id, rec := range reg.Workspaces {
		registered[rec.PID] = true
		report.Registered = append(report.Registered, RunningWorkspace{
			Workspace: id,
			PID:       rec.PID,
			Folder:    rec.Folder,
			StartedAt: rec.StartedAt,
			Running:   r.Ops.Exists(rec.PID),
		})
	}
	sort.Slice(report.Registered, func(i, j int) bool {
		return report.Registered[i].Workspace < report.Registered[j].Workspace
	})

	if r.Signature != "" {
		for _, pid := range r.Ops.ListBySignature(r.Signature) {
			if !registered[pid] {
				report.Unregistered = append(report.Unregistered, pid)
			}
		}
		sort.Ints(report.Unregistered)
	}
	return report
}
