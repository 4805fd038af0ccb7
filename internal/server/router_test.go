package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/loykin/deskshell/internal/event"
	"github.com/loykin/deskshell/internal/supervisor"
)

type fakeStatuses struct{ statuses []supervisor.Status }

func (f fakeStatuses) Statuses() []supervisor.Status { return f.statuses }

type fakeRestarter struct {
	roles []event.Role
	err   error
}

func (f *fakeRestarter) Restart(role event.Role) error {
	f.roles = append(f.roles, role)
	return f.err
}

func newTestRouter(r event.Restarter, sp StatusProvider) http.Handler {
	gin.SetMode(gin.TestMode)
	bus := event.NewBus()
	if r != nil {
		bus.SetRestarter(r)
	}
	return NewRouter(bus, sp, "/api").Handler()
}

func TestRestartEndpoints(t *testing.T) {
	fr := &fakeRestarter{}
	h := newTestRouter(fr, fakeStatuses{})

	for path, want := range map[string]event.Role{
		"/api/restart/server":  event.RoleServer,
		"/api/restart/browser": event.RoleBrowser,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
		require.Contains(t, fr.roles, want)
	}
}

func TestRestartWithoutRestarterFails(t *testing.T) {
	h := newTestRouter(nil, fakeStatuses{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/restart/server", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	sp := fakeStatuses{statuses: []supervisor.Status{
		{Role: event.RoleServer, Running: true, PID: 41},
		{Role: event.RoleBrowser, Running: false},
	}}
	h := newTestRouter(nil, sp)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []supervisor.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, event.RoleServer, got[0].Role)
	require.True(t, got[0].Running)
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(nil, fakeStatuses{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSanitizeBase(t *testing.T) {
	require.Equal(t, "", sanitizeBase(""))
	require.Equal(t, "/api", sanitizeBase("api"))
	require.Equal(t, "/api", sanitizeBase("/api/"))
}
