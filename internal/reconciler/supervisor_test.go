package reconciler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSupervisorStartStopIdempotent(t *testing.T) {
	rec, _ := newTestReconciler(t, newFakeOps())
	sup := NewSupervisor(rec, time.Hour)

	sup.Start(nil)
	sup.Start(nil) // no-op
	if !sup.Running() {
		t.Fatal("supervisor should be running")
	}
	sup.Stop()
	sup.Stop() // safe
	if sup.Running() {
		t.Fatal("supervisor should be stopped")
	}
	// A stopped supervisor can be started again.
	sup.Start(nil)
	defer sup.Stop()
	if !sup.Running() {
		t.Fatal("supervisor should restart")
	}
}

func TestSupervisorTickUsesFreshProvider(t *testing.T) {
	ops := newFakeOps()
	ops.alive[100] = true
	rec, store := newTestReconciler(t, ops)
	store.Register("w1", 100, "/a")

	var calls atomic.Int32
	sup := NewSupervisor(rec, time.Hour)
	sup.Start(func() []string {
		calls.Add(1)
		return []string{"w1"}
	})
	defer sup.Stop()

	sup.Tick()
	if calls.Load() != 1 {
		t.Fatalf("provider should be called once per tick, got %d", calls.Load())
	}
	if _, ok := store.Load().Workspaces["w1"]; !ok {
		t.Fatal("active workspace must survive the tick")
	}
	if ops.signaled(100) {
		t.Fatal("active pid must not be signaled")
	}
}

func TestSupervisorTickReapsWithNilProvider(t *testing.T) {
	ops := newFakeOps()
	ops.alive[100] = true
	rec, store := newTestReconciler(t, ops)
	store.Register("w1", 100, "/a")

	sup := NewSupervisor(rec, time.Hour)
	sup.Tick()

	if n := len(store.Load().Workspaces); n != 0 {
		t.Fatalf("nil provider means nothing is active; registry should be empty, has %d", n)
	}
}

func TestSupervisorPeriodicTickFires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test")
	}
	ops := newFakeOps()
	rec, store := newTestReconciler(t, ops)
	store.Register("w1", 12345, "/a") // dead pid, pruned on first tick

	sup := NewSupervisor(rec, 20*time.Millisecond)
	sup.Start(nil)
	defer sup.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(store.Load().Workspaces) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("periodic tick never pruned the dead entry")
}

func TestSupervisorSurvivesPanickingProvider(t *testing.T) {
	rec, _ := newTestReconciler(t, newFakeOps())
	sup := NewSupervisor(rec, time.Hour)
	sup.Start(func() []string { panic("provider blew up") })
	defer sup.Stop()

	sup.Tick() // must not propagate
	if !sup.Running() {
		t.Fatal("supervisor must keep running after a panicking tick")
	}
}

func TestSupervisorDefaultInterval(t *testing.T) {
	rec, _ := newTestReconciler(t, newFakeOps())
	sup := NewSupervisor(rec, 0)
	if sup.interval != DefaultInterval {
		t.Fatalf("expected default interval, got %v", sup.interval)
	}
}
