package procward

import (
	"errors"
	"net/http"
	"time"

	"github.com/loykin/procward/internal/config"
	"github.com/loykin/procward/internal/history"
	"github.com/loykin/procward/internal/logger"
	"github.com/loykin/procward/internal/metrics"
	"github.com/loykin/procward/internal/proctree"
	"github.com/loykin/procward/internal/reconciler"
	"github.com/loykin/procward/internal/registry"
	iapi "github.com/loykin/procward/internal/server"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type TrackedProcess = registry.TrackedProcess

type Registry = registry.Registry

type ReconcileResult = reconciler.Result

type ScanResult = reconciler.ScanResult

type RunningReport = reconciler.RunningReport

type ActiveProvider = reconciler.ActiveProvider

type HistorySink = history.Sink

type HistoryEvent = history.Event

type LogConfig = logger.Config

type FileConfig = config.FileConfig

// Options configures a Manager. The zero value is usable: the registry goes
// to the default per-user path, the supervisor ticks every five minutes, and
// the orphan scanner stays disabled until a Signature is provided.
type Options struct {
	// RegistryPath overrides the registry file location.
	RegistryPath string
	// Signature identifies this application's worker processes in the OS
	// process table (a distinctive command-line marker).
	Signature string
	// Interval is the periodic supervision cadence.
	Interval time.Duration
	// History receives an audit event per prune/kill. Optional.
	History history.Sink
}

// Manager is the embeddable supervisor facade. All operations are
// best-effort by contract: nothing here panics or requires the host to
// handle an error to stay alive.
type Manager struct {
	store *registry.Store
	rec   *reconciler.Reconciler
	sup   *reconciler.Supervisor
}

func New(opts Options) *Manager {
	store := registry.NewStore(opts.RegistryPath)
	rec := reconciler.New(store, proctree.System())
	rec.Signature = opts.Signature
	rec.Sink = opts.History
	return &Manager{
		store: store,
		rec:   rec,
		sup:   reconciler.NewSupervisor(rec, opts.Interval),
	}
}

// Register records workspaceID as tracked by pid, overwriting any prior
// record for the same id.
func (m *Manager) Register(workspaceID string, pid int, folder string) error {
	if workspaceID == "" {
		return errors.New("workspace id required")
	}
	if pid <= 0 {
		return errors.New("pid must be positive")
	}
	m.store.Register(workspaceID, pid, folder)
	return nil
}

// Unregister removes the record for workspaceID. Unknown ids are a no-op.
func (m *Manager) Unregister(workspaceID string) {
	m.store.Unregister(workspaceID)
}

// ListRegistered returns the current registry contents.
func (m *Manager) ListRegistered() map[string]TrackedProcess {
	return m.store.Load().Workspaces
}

// ListRunning joins the registry with fresh liveness probes and reports any
// enumerated worker pids no registry entry accounts for.
func (m *Manager) ListRunning() RunningReport {
	return m.rec.Running()
}

// ClearAll drops every registry record. Testing/manual reset.
func (m *Manager) ClearAll() {
	m.store.Clear()
}

// Reconcile terminates or prunes every registry entry not in activeIDs.
func (m *Manager) Reconcile(activeIDs []string) ReconcileResult {
	return m.rec.Reconcile(activeIDs)
}

// Scan kills signature-matching processes that are neither registered nor
// part of an active workspace's descendant closure.
func (m *Manager) Scan(activeIDs []string) ScanResult {
	return m.rec.Scan(activeIDs)
}

// StartSupervisor launches the periodic reconcile+scan loop. A no-op when
// already running; a nil provider acts as an empty active set.
func (m *Manager) StartSupervisor(provider ActiveProvider) {
	m.sup.Start(provider)
}

// StopSupervisor prevents future ticks. Safe to call repeatedly; an
// in-flight kill sequence runs to completion.
func (m *Manager) StopSupervisor() {
	m.sup.Stop()
}

// SupervisorRunning reports whether the periodic loop is active.
func (m *Manager) SupervisorRunning() bool {
	return m.sup.Running()
}

// Tick runs one reconcile+scan pass immediately, using the supervisor's
// provider when one is set. Intended for startup cleanup before the
// periodic loop begins.
func (m *Manager) Tick() {
	m.sup.Tick()
}

// NewHTTPRouter returns a mountable handler for the admin API.
func NewHTTPRouter(m *Manager, basePath string) http.Handler {
	return iapi.NewRouter(m.store, m.rec, basePath).Handler()
}

// NewHTTPServer starts a standalone admin API server on addr.
func NewHTTPServer(addr, basePath string, m *Manager) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, m.store, m.rec)
}

// RegisterMetrics registers the supervisor's Prometheus collectors.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// MetricsHandler serves Prometheus metrics for the default gatherer.
func MetricsHandler() http.Handler { return metrics.Handler() }

// NewLogger builds a slog.Logger per c and installs it as the default.
func NewLogger(c LogConfig) { logger.Install(c) }

// LoadConfig reads daemon configuration from the TOML file at path. An
// empty path yields the documented defaults.
func LoadConfig(path string) (FileConfig, error) { return config.Load(path) }
