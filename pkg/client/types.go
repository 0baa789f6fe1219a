package client

import "time"

// RegisterRequest records one workspace's worker process.
type RegisterRequest struct {
	WorkspaceID string `json:"workspaceId"`
	PID         int    `json:"pid"`
	Folder      string `json:"folder"`
}

// UnregisterRequest removes one workspace's record.
type UnregisterRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

// ActiveRequest carries the caller's actively-managed workspace ids.
type ActiveRequest struct {
	Active []string `json:"active"`
}

// TrackedProcess mirrors the daemon's registry record.
type TrackedProcess struct {
	PID       int       `json:"pid"`
	Folder    string    `json:"folder"`
	StartedAt time.Time `json:"startedAt"`
}

// RunningWorkspace is one registered entry joined with current liveness.
type RunningWorkspace struct {
	Workspace string    `json:"workspace"`
	PID       int       `json:"pid"`
	Folder    string    `json:"folder"`
	StartedAt time.Time `json:"startedAt"`
	Running   bool      `json:"running"`
}

// RunningReport pairs the registry view with unregistered orphan pids.
type RunningReport struct {
	Registered   []RunningWorkspace `json:"registered"`
	Unregistered []int              `json:"unregistered"`
}

// ReconcileResult is the outcome of one registry reconciliation pass.
type ReconcileResult struct {
	Cleaned    int   `json:"cleaned"`
	Failed     int   `json:"failed"`
	FailedPids []int `json:"failedPids"`
}

// ScanResult is the outcome of one unregistered-orphan scan.
type ScanResult struct {
	Found  int   `json:"found"`
	Killed int   `json:"killed"`
	Pids   []int `json:"pids"`
}

// ErrorResponse is the daemon's error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
