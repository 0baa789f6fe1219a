package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/procward/internal/proctree"
	"github.com/loykin/procward/internal/reconciler"
	"github.com/loykin/procward/internal/registry"
)

// nothingAlive is an Ops where every pid is dead and nothing is enumerated.
type nothingAlive struct{}

func (nothingAlive) Exists(int) bool            { return false }
func (nothingAlive) Descendants(int) []int      { return nil }
func (nothingAlive) ListBySignature(string) []int { return nil }
func (nothingAlive) Terminate(int) error        { return nil }
func (nothingAlive) Kill(int) error             { return nil }

func setupRouter(t *testing.T, base string) (http.Handler, *registry.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := registry.NewStore(filepath.Join(t.TempDir(), "workspaces.json"))
	rec := reconciler.New(store, nothingAlive{})
	rec.Terminator = &proctree.Terminator{Ops: nothingAlive{}, PollInterval: time.Millisecond}
	r := NewRouter(store, rec, base)
	return r.Handler(), store
}

func doReq(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndList(t *testing.T) {
	h, _ := setupRouter(t, "/api")
	rec := doReq(t, h, http.MethodPost, "/api/register",
		registerReq{WorkspaceID: "w1", PID: 4242, Folder: "/work/a"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, h, http.MethodGet, "/api/registered", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]registry.TrackedProcess
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["w1"].PID != 4242 {
		t.Fatalf("unexpected registry state: %v", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setupRouter(t, "")
	cases := []registerReq{
		{WorkspaceID: "", PID: 1, Folder: "/a"},
		{WorkspaceID: "w", PID: 0, Folder: "/a"},
		{WorkspaceID: "w", PID: -5, Folder: "/a"},
		{WorkspaceID: "w", PID: 1, Folder: "relative/path"},
		{WorkspaceID: "w", PID: 1, Folder: "/a/../b"},
	}
	for _, body := range cases {
		if rec := doReq(t, h, http.MethodPost, "/register", body); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for %+v, got %d", body, rec.Code)
		}
	}
}

func TestUnregister(t *testing.T) {
	h, store := setupRouter(t, "")
	store.Register("w1", 100, "/a")

	rec := doReq(t, h, http.MethodPost, "/unregister", unregisterReq{WorkspaceID: "w1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := store.Load().Workspaces["w1"]; ok {
		t.Fatal("w1 should be removed")
	}
}

func TestUnregisterRequiresID(t *testing.T) {
	h, _ := setupRouter(t, "")
	if rec := doReq(t, h, http.MethodPost, "/unregister", unregisterReq{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestClearAll(t *testing.T) {
	h, store := setupRouter(t, "")
	store.Register("w1", 100, "/a")
	store.Register("w2", 200, "/b")

	rec := doReq(t, h, http.MethodDelete, "/registered", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n := len(store.Load().Workspaces); n != 0 {
		t.Fatalf("expected empty registry, got %d", n)
	}
}

func TestRunningReport(t *testing.T) {
	h, store := setupRouter(t, "")
	store.Register("w1", 100, "/a")

	rec := doReq(t, h, http.MethodGet, "/running", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report reconciler.RunningReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Registered) != 1 || report.Registered[0].Running {
		t.Fatalf("expected one dead registered entry, got %+v", report)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	h, store := setupRouter(t, "/abc")
	store.Register("w1", 12345, "/a") // dead pid

	rec := doReq(t, h, http.MethodPost, "/abc/reconcile", activeReq{Active: []string{}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res reconciler.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Cleaned != 1 || res.Failed != 0 {
		t.Fatalf("expected {1 0}, got %+v", res)
	}
	if n := len(store.Load().Workspaces); n != 0 {
		t.Fatalf("registry should be empty, got %d", n)
	}
}

func TestScanEndpoint(t *testing.T) {
	h, _ := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/scan", activeReq{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res reconciler.ScanResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Found != 0 {
		t.Fatalf("expected zero result, got %+v", res)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := setupRouter(t, "")
	rec := doReq(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBasePathSanitization(t *testing.T) {
	h, _ := setupRouter(t, "abc/")
	rec := doReq(t, h, http.MethodGet, "/abc/registered", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 via sanitized base path, got %d", rec.Code)
	}
}
