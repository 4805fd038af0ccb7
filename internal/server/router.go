package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/deskshell/internal/event"
	"github.com/loykin/deskshell/internal/supervisor"
)

// StatusProvider exposes role snapshots for the status endpoint.
type StatusProvider interface {
	Statuses() []supervisor.Status
}

// Router provides the loopback control API.
// Endpoints:
//
//	POST {basePath}/restart/server
//	POST {basePath}/restart/browser
//	GET  {basePath}/status
//	GET  {basePath}/healthz
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	bus      *event.Bus
	statuses StatusProvider
	basePath string
}

func NewRouter(bus *event.Bus, statuses StatusProvider, basePath string) *Router {
	return &Router{bus: bus, statuses: statuses, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/restart/server", r.handleRestart(event.CommandRestartServer))
	group.POST("/restart/browser", r.handleRestart(event.CommandRestartBrowser))
	group.GET("/status", r.handleStatus)
	group.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, okResp{OK: true}) })
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, bus *event.Bus, statuses StatusProvider) (*http.Server, error) {
	r := NewRouter(bus, statuses, basePath)
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

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleRestart(cmd event.Command) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := r.bus.Dispatch(cmd); err != nil {
			c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, okResp{OK: true})
	}
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.statuses.Statuses())
}

func sanitizeBase(basePath string) string {
	bp := strings.TrimSpace(basePath)
	if bp == "" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimSuffix(bp, "/")
}
