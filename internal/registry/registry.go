package registry

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// TrackedProcess is the durable record kept for one workspace's worker.
type TrackedProcess struct {
	PID       int       `json:"pid"`
	Folder    string    `json:"folder"`
	StartedAt time.Time `json:"startedAt"`
}

// Registry is the on-disk document: one map of workspace id to record.
type Registry struct {
	Workspaces map[string]TrackedProcess `json:"workspaces"`
}

// Store persists the registry as a single JSON file. The file is the sole
// source of truth: every operation re-reads it, mutates a copy and writes it
// back, so a Store carries no state besides its path.
type Store struct {
	path string
}

// DefaultPath returns the per-user registry location,
// <UserConfigDir>/procward/workspaces.json.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "procward", "workspaces.json")
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads the registry file. Any failure (missing file, corrupt JSON)
// yields an empty registry; callers never see an error.
func (s *Store) Load() Registry {
	reg := Registry{Workspaces: map[string]TrackedProcess{}}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return reg
	}
	var parsed Registry
	if err := json.Unmarshal(b, &parsed); err != nil {
		slog.Debug("registry file unreadable, treating as empty", "path", s.path, "error", err)
		return reg
	}
	if parsed.Workspaces != nil {
		reg.Workspaces = parsed.Workspaces
	}
	return reg
}

// Save writes the registry atomically (temp file then rename), creating
// parent directories as needed. Persistence is best-effort: failures are
// logged and swallowed.
func (s *Store) Save(reg Registry) {
	if reg.Workspaces == nil {
		reg.Workspaces = map[string]TrackedProcess{}
	}
	b, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		slog.Warn("registry marshal failed", "error", err)
		return
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Warn("registry dir create failed", "dir", dir, "error", err)
		return
	}
	tmp, err := os.CreateTemp(dir, ".workspaces-*.json")
	if err != nil {
		slog.Warn("registry temp file failed", "error", err)
		return
	}
	_, werr := tmp.Write(b)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		slog.Warn("registry write failed", "path", s.path, "error", werr)
		return
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		slog.Warn("registry rename failed", "path", s.path, "error", err)
	}
}

// Register inserts or overwrites the record for workspaceID with the current
// timestamp. Registering an id twice keeps only the latest record.
func (s *Store) Register(workspaceID string, pid int, folder string) {
	reg := s.Load()
	reg.Workspaces[workspaceID] = TrackedProcess{
		PID:       pid,
		Folder:    folder,
		StartedAt: time.Now().UTC(),
	}
	s.Save(reg)
	slog.Debug("workspace registered", "workspace", workspaceID, "pid", pid)
}

// Unregister deletes the record for workspaceID if present.
func (s *Store) Unregister(workspaceID string) {
	reg := s.Load()
	if _, ok := reg.Workspaces[workspaceID]; !ok {
		return
	}
	delete(reg.Workspaces, workspaceID)
	s.Save(reg)
	slog.Debug("workspace unregistered", "workspace", workspaceID)
}

// Remove deletes the given workspace ids in one load/save cycle. Used by the
// reconciler's final phase so that entries registered during a pass survive.
func (s *Store) Remove(workspaceIDs []string) {
	if len(workspaceIDs) == 0 {
		return
	}
	reg := s.Load()
	for _, id := range workspaceIDs {
		delete(reg.Workspaces, id)
	}
	s.Save(reg)
}

// Clear drops every record. Intended for tests and manual resets.
func (s *Store) Clear() {
	s.Save(Registry{Workspaces: map[string]TrackedProcess{}})
}
