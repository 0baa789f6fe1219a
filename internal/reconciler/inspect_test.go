package reconciler

import (
	"testing"
)

func TestRunningReport(t *testing.T) {
	ops := newFakeOps()
	ops.alive[10] = true
	ops.listed = []int{10, 99}

	rec, store := newTestReconciler(t, ops)
	rec.Signature = "procward-worker"
	store.Register("w1", 10, "/a")
	store.Register("w2", 20, "/b") // dead

	report := rec.Running()
	if len(report.Registered) != 2 {
		t.Fatalf("expected 2 registered, got %d", len(report.Registered))
	}
	if report.Registered[0].Workspace != "w1" || !report.Registered[0].Running {
		t.Fatalf("w1 should be first and running: %+v", report.Registered[0])
	}
	if report.Registered[1].Workspace != "w2" || report.Registered[1].Running {
		t.Fatalf("w2 should be dead: %+v", report.Registered[1])
	}
	if len(report.Unregistered) != 1 || report.Unregistered[0] != 99 {
		t.Fatalf("expected unregistered [99], got %v", report.Unregistered)
	}
}

func TestRunningReportWithoutSignature(t *testing.T) {
	ops := newFakeOps()
	ops.listed = []int{99}
	rec, _ := newTestReconciler(t, ops)

	report := rec.Running()
	if len(report.Unregistered) != 0 {
		t.Fatalf("no signature means no enumeration, got %v", report.Unregistered)
	}
}
