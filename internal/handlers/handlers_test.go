// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/schemascope/core/internal/datasource"
	"github.com/schemascope/core/internal/engine"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/progress"
	"github.com/schemascope/core/internal/render"
	"github.com/schemascope/core/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func graph() models.GraphData {
	return models.GraphData{
		Nodes: []models.GraphNode{
			{ID: "s1", Label: "HR", Type: models.NodeSchema},
			{ID: "t1", Label: "EMPLOYEES", Type: models.NodeTable, Metadata: map[string]any{"owner": "HR", "rowCount": 107}},
			{ID: "c1", Label: "EMPLOYEE_ID", Type: models.NodeColumn, Metadata: map[string]any{"dataType": "NUMBER"}},
		},
		Edges: []models.GraphEdge{
			{ID: "e1", Source: "s1", Target: "t1", Type: models.EdgeContains},
			{ID: "e2", Source: "t1", Target: "c1", Type: models.EdgeContains},
		},
	}
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	cfg := render.DefaultConfig()
	cfg.Layout.Name = "preset"
	cfg.Layout.Fit = false
	src := datasource.NewStatic(map[string]models.GraphData{"conn-1": graph()})
	m := session.NewManager(render.NewAdapter(engine.Factory, nil), session.Options{Render: cfg, Source: src}, 0)
	t.Cleanup(m.CloseAll)
	return m
}

func setupRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	h := New(opts)
	router.GET("/health", h.Health)
	RegisterRoutes(router.Group("/api/v1"), h)
	return router
}

func do(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) models.Envelope[T] {
	t.Helper()
	var env models.Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	w := do(router, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[SessionResponse](t, w).Data.ID
}

func TestSessions(t *testing.T) {
	t.Run("create and delete", func(t *testing.T) {
		m := newManager(t)
		router := setupRouter(Options{Sessions: m})

		id := createSession(t, router)
		assert.NotEmpty(t, id)
		assert.Equal(t, 1, m.Len())

		w := do(router, http.MethodDelete, "/api/v1/sessions/"+id, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 0, m.Len())

		w = do(router, http.MethodDelete, "/api/v1/sessions/"+id, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decode[ErrorDetail](t, w)
		assert.False(t, env.Success)
		assert.Equal(t, "SESSION_NOT_FOUND", env.ErrorCode)
	})

	t.Run("unknown session", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})

		w := do(router, http.MethodGet, "/api/v1/sessions/nope/stats", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("load returns stats and report", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)

		w := do(router, http.MethodPost, "/api/v1/sessions/"+id+"/load", LoadRequest{ConnectionID: "conn-1"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[session.Summary](t, w)
		assert.True(t, env.Success)
		assert.Equal(t, "conn-1", env.Data.ConnectionID)
		assert.Equal(t, 3, env.Data.Stats.TotalNodes)
		assert.Equal(t, 2, env.Data.Stats.TotalEdges)
		assert.Empty(t, env.Data.Report.DanglingEdges)
	})

	t.Run("load requires a connection id", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)

		w := do(router, http.MethodPost, "/api/v1/sessions/"+id+"/load", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", decode[ErrorDetail](t, w).ErrorCode)
	})

	t.Run("load of an unknown connection", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)

		w := do(router, http.MethodPost, "/api/v1/sessions/"+id+"/load", LoadRequest{ConnectionID: "conn-9"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NO_DATA", decode[ErrorDetail](t, w).ErrorCode)

		w = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/stats", nil)
		assert.Equal(t, 0, decode[session.Summary](t, w).Data.Stats.TotalNodes)
	})

	t.Run("filter highlights matches", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)
		do(router, http.MethodPost, "/api/v1/sessions/"+id+"/load", LoadRequest{ConnectionID: "conn-1"})

		w := do(router, http.MethodPut, "/api/v1/sessions/"+id+"/filter", models.SearchFilter{Query: "  employee "})

		require.Equal(t, http.StatusOK, w.Code)
		env := decode[FilterResponse](t, w)
		assert.Equal(t, "employee", env.Data.Filter.Query)
		assert.True(t, env.Data.Visual.Active)
		assert.Contains(t, env.Data.Visual.Highlighted, models.ElementRef{Kind: models.KindNode, ID: "t1"})
		assert.Contains(t, env.Data.Visual.Dimmed, models.ElementRef{Kind: models.KindNode, ID: "s1"})
	})

	t.Run("types lists present types", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)
		do(router, http.MethodPost, "/api/v1/sessions/"+id+"/load", LoadRequest{ConnectionID: "conn-1"})

		w := do(router, http.MethodGet, "/api/v1/sessions/"+id+"/types", nil)

		env := decode[TypesResponse](t, w)
		assert.ElementsMatch(t, []models.NodeType{models.NodeSchema, models.NodeTable, models.NodeColumn}, env.Data.NodeTypes)
		assert.Equal(t, []models.EdgeType{models.EdgeContains}, env.Data.EdgeTypes)
	})

	t.Run("input selects and opens detail", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)
		do(router, http.MethodPost, "/api/v1/sessions/"+id+"/load", LoadRequest{ConnectionID: "conn-1"})

		w := do(router, http.MethodPost, "/api/v1/sessions/"+id+"/input",
			render.Input{Event: render.EventTap, Group: models.KindNode, IDs: []string{"t1"}})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[SelectionResponse](t, w)
		require.NotNil(t, env.Data.Selection.Node)
		assert.Equal(t, "t1", env.Data.Selection.Node.ID)
		require.NotNil(t, env.Data.Detail)
		assert.Equal(t, "EMPLOYEES", env.Data.Detail.Label)

		w = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/selection", nil)
		assert.Equal(t, "t1", decode[SelectionResponse](t, w).Data.Detail.ID)

		w = do(router, http.MethodDelete, "/api/v1/sessions/"+id+"/selection", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/selection", nil)
		env = decode[SelectionResponse](t, w)
		assert.Nil(t, env.Data.Selection.Node)
		assert.Nil(t, env.Data.Detail)
	})

	t.Run("input is validated", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)

		cases := map[string]string{
			"unknown event": `{"event":"hover","group":"nodes","ids":["t1"]}`,
			"unknown group": `{"event":"tap","group":"rows","ids":["t1"]}`,
			"not json":      `tap`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				w := do(router, http.MethodPost, "/api/v1/sessions/"+id+"/input", body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})

	t.Run("view actions", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)
		do(router, http.MethodPost, "/api/v1/sessions/"+id+"/load", LoadRequest{ConnectionID: "conn-1"})

		for _, action := range []string{"fit", "center", "reset"} {
			w := do(router, http.MethodPost, "/api/v1/sessions/"+id+"/view/"+action, nil)
			assert.Equal(t, http.StatusNoContent, w.Code, action)
		}

		w := do(router, http.MethodPost, "/api/v1/sessions/"+id+"/view/spin", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("export", func(t *testing.T) {
		router := setupRouter(Options{Sessions: newManager(t)})
		id := createSession(t, router)
		do(router, http.MethodPost, "/api/v1/sessions/"+id+"/load", LoadRequest{ConnectionID: "conn-1"})

		w := do(router, http.MethodGet, "/api/v1/sessions/"+id+"/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "graph.png")
		assert.Equal(t, []byte("\x89PNG"), w.Body.Bytes()[:4])

		w = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/export?format=dot", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "digraph")

		w = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/export?format=svg", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    int
		code      string
		retryable bool
	}{
		{"superseded", fmt.Errorf("load: %w", session.ErrSuperseded), http.StatusConflict, "SUPERSEDED", true},
		{"running", progress.ErrRunning, http.StatusConflict, "DISCOVERY_RUNNING", false},
		{"closed", session.ErrClosed, http.StatusGone, "SESSION_CLOSED", false},
		{"no source", session.ErrNoSource, http.StatusServiceUnavailable, "NO_SOURCE", false},
		{"upstream 404", &models.APIError{Status: 404, Message: "missing", ErrorCode: "CONNECTION_NOT_FOUND"}, http.StatusNotFound, "CONNECTION_NOT_FOUND", false},
		{"upstream 500", &models.APIError{Status: 500}, http.StatusBadGateway, "UPSTREAM_ERROR", true},
		{"timeout", fmt.Errorf("failed to call listConnections: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "TIMEOUT", true},
		{"transport", errors.New("connection refused"), http.StatusBadGateway, "UPSTREAM_ERROR", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, retryable := classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.retryable, retryable)
		})
	}
}
