package reconciler

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loykin/procward/internal/metrics"
)

// DefaultInterval is the periodic supervision cadence.
const DefaultInterval = 5 * time.Minute

// ActiveProvider returns the workspace ids the caller considers actively
// managed. It is invoked fresh on every tick.
type ActiveProvider func() []string

// Supervisor owns the recurring reconcile+scan timer. It is an explicit
// object with its own ticker and injected provider; there is no package
// state. Start is a no-op when already running and Stop is safe to call any
// number of times.
type Supervisor struct {
	rec      *Reconciler
	interval time.Duration

	mu       sync.Mutex
	provider ActiveProvider
	quit     chan struct{}
	done     chan struct{}
	inflight atomic.Bool
}

func NewSupervisor(rec *Reconciler, interval time.Duration) *Supervisor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Supervisor{rec: rec, interval: interval}
}

// Start launches the periodic loop. A nil provider acts as an empty set.
func (s *Supervisor) Start(provider ActiveProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quit != nil {
		return
	}
	s.provider = provider
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.quit, s.done)
	slog.Info("periodic supervisor started", "interval", s.interval)
}

// Stop prevents future ticks. An in-flight pass runs to completion; its kill
// sequences are bounded by their own escalation timeouts.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quit == nil {
		return
	}
	close(s.quit)
	s.quit = nil
	slog.Info("periodic supervisor stopped")
}

// Running reports whether the timer is active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quit != nil
}

func (s *Supervisor) run(quit, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-quit:
			return
		case <-t.C:
			// Never re-enter while a prior tick's pass is still running.
			if !s.inflight.CompareAndSwap(false, true) {
				continue
			}
			s.tick()
			s.inflight.Store(false)
		}
	}
}

// Tick runs one reconcile+scan pass immediately, outside the timer. Used at
// startup and by the admin API.
func (s *Supervisor) Tick() {
	if !s.inflight.CompareAndSwap(false, true) {
		return
	}
	s.tick()
	s.inflight.Store(false)
}

func (s *Supervisor) tick() {
	// A supervisory pass must never take the host down.
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("supervision pass panicked", "panic", rec)
		}
	}()

	s.mu.Lock()
	provider := s.provider
	s.mu.Unlock()

	var active []string
	if provider != nil {
		active = provider()
	}

	if res := s.rec.Reconcile(active); res.Cleaned > 0 || res.Failed > 0 {
		slog.Info("reconciled workspace registry",
			"cleaned", res.Cleaned, "failed", res.Failed, "failedPids", res.FailedPids)
	}
	if res := s.rec.Scan(active); res.Found > 0 {
		slog.Info("scanned for unregistered orphans",
			"found", res.Found, "killed", res.Killed, "pids", res.Pids)
	}
	metrics.SetLastTick(float64(time.Now().Unix()))
}
