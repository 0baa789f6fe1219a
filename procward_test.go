package procward

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(Options{
		RegistryPath: filepath.Join(t.TempDir(), "workspaces.json"),
		Interval:     time.Hour,
	})
}

func TestRegisterListUnregister(t *testing.T) {
	m := newTestManager(t)
	if err := m.Register("w1", 4242, "/work/a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Register("", 1, "/a"); err == nil {
		t.Fatal("empty workspace id must be rejected")
	}
	if err := m.Register("w2", 0, "/a"); err == nil {
		t.Fatal("non-positive pid must be rejected")
	}

	regs := m.ListRegistered()
	if len(regs) != 1 || regs["w1"].PID != 4242 {
		t.Fatalf("unexpected registry: %v", regs)
	}

	m.Unregister("w1")
	if len(m.ListRegistered()) != 0 {
		t.Fatal("w1 should be gone")
	}
}

func TestRegisterOverwrite(t *testing.T) {
	m := newTestManager(t)
	_ = m.Register("w1", 100, "/a")
	_ = m.Register("w1", 200, "/b")
	regs := m.ListRegistered()
	if len(regs) != 1 || regs["w1"].PID != 200 {
		t.Fatalf("expected single latest record, got %v", regs)
	}
}

func TestClearAll(t *testing.T) {
	m := newTestManager(t)
	_ = m.Register("w1", 100, "/a")
	_ = m.Register("w2", 200, "/b")
	m.ClearAll()
	if len(m.ListRegistered()) != 0 {
		t.Fatal("registry should be empty")
	}
}

func TestReconcilePrunesDeadPid(t *testing.T) {
	m := newTestManager(t)
	// A pid far beyond typical pid_max; if it exists on this machine the
	// probe is conservative and the test would kill it, so skip then.
	const ghost = 1 << 22
	_ = m.Register("w1", ghost, "/tmp")
	report := m.ListRunning()
	if len(report.Registered) != 1 {
		t.Fatalf("expected one registered entry, got %+v", report)
	}
	if report.Registered[0].Running {
		t.Skip("pid unexpectedly alive on this machine")
	}

	res := m.Reconcile(nil)
	if res.Cleaned != 1 || res.Failed != 0 {
		t.Fatalf("expected {1 0}, got %+v", res)
	}
	if len(m.ListRegistered()) != 0 {
		t.Fatal("registry should be empty after reconcile")
	}
}

func TestReconcileSkipsActive(t *testing.T) {
	m := newTestManager(t)
	_ = m.Register("w1", 1<<22, "/tmp")
	res := m.Reconcile([]string{"w1"})
	if res.Cleaned != 0 || res.Failed != 0 {
		t.Fatalf("active entry must be untouched, got %+v", res)
	}
	if len(m.ListRegistered()) != 1 {
		t.Fatal("active entry must survive")
	}
}

func TestSupervisorLifecycle(t *testing.T) {
	m := newTestManager(t)
	m.StartSupervisor(func() []string { return nil })
	m.StartSupervisor(nil) // no-op
	if !m.SupervisorRunning() {
		t.Fatal("supervisor should be running")
	}
	m.StopSupervisor()
	m.StopSupervisor()
	if m.SupervisorRunning() {
		t.Fatal("supervisor should be stopped")
	}
}

func TestScanWithoutSignature(t *testing.T) {
	m := newTestManager(t)
	res := m.Scan(nil)
	if res.Found != 0 || res.Killed != 0 {
		t.Fatalf("scan without signature must be a no-op, got %+v", res)
	}
}
