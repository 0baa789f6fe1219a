package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/procward/internal/metrics"
	"github.com/loykin/procward/internal/reconciler"
	"github.com/loykin/procward/internal/registry"
)

// Router provides embeddable HTTP handlers for the supervisor.
// Endpoints:
//
//	POST   {basePath}/register    body: {"workspaceId","pid","folder"}
//	POST   {basePath}/unregister  body: {"workspaceId"}
//	GET    {basePath}/registered
//	DELETE {basePath}/registered  clear-all (testing/manual reset)
//	GET    {basePath}/running
//	POST   {basePath}/reconcile   body: {"active": [...]}
//	POST   {basePath}/scan        body: {"active": [...]}
//	GET    {basePath}/metrics
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	store    *registry.Store
	rec      *reconciler.Reconciler
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
func NewRouter(store *registry.Store, rec *reconciler.Reconciler, basePath string) *Router {
	return &Router{store: store, rec: rec, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/register", r.handleRegister)
	group.POST("/unregister", r.handleUnregister)
	group.GET("/registered", r.handleRegistered)
	group.DELETE("/registered", r.handleClear)
	group.GET("/running", r.handleRunning)
	group.POST("/reconcile", r.handleReconcile)
	group.POST("/scan", r.handleScan)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, store *registry.Store, rec *reconciler.Reconciler) (*http.Server, error) {
	r := NewRouter(store, rec, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type registerReq struct {
	WorkspaceID string `json:"workspaceId"`
	PID         int    `json:"pid"`
	Folder      string `json:"folder"`
}

type unregisterReq struct {
	WorkspaceID string `json:"workspaceId"`
}

type activeReq struct {
	Active []string `json:"active"`
}

func (r *Router) handleRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.WorkspaceID == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "workspaceId required"})
		return
	}
	if req.PID <= 0 {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "pid must be positive"})
		return
	}
	if !isSafeAbsPath(req.Folder) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid folder: must be absolute path without traversal"})
		return
	}
	r.store.Register(req.WorkspaceID, req.PID, req.Folder)
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleUnregister(c *gin.Context) {
	var req unregisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.WorkspaceID == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "workspaceId required"})
		return
	}
	r.store.Unregister(req.WorkspaceID)
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleRegistered(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.store.Load().Workspaces)
}

func (r *Router) handleClear(c *gin.Context) {
	r.store.Clear()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleRunning(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.rec.Running())
}

func (r *Router) handleReconcile(c *gin.Context) {
	var req activeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, r.rec.Reconcile(req.Active))
}

func (r *Router) handleScan(c *gin.Context) {
	var req activeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, r.rec.Scan(req.Active))
}
