// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T, steps ...progress.Step) *progress.Tracker {
	t.Helper()
	tracker := progress.NewTracker(&progress.Simulated{Steps: steps, Tick: time.Millisecond}, nil)
	t.Cleanup(tracker.Close)
	return tracker
}

func readEvents(t *testing.T, url string) []models.DiscoveryProgress {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var out []models.DiscoveryProgress
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		data, found := strings.CutPrefix(scanner.Text(), "data:")
		if !found {
			continue
		}
		var p models.DiscoveryProgress
		require.NoError(t, json.Unmarshal([]byte(data), &p))
		out = append(out, p)
	}
	return out
}

func TestDiscovery(t *testing.T) {
	fast := []progress.Step{
		{Status: models.DiscoveryConnecting, Message: "Connecting", Duration: 2 * time.Millisecond},
		{Status: models.DiscoveryFinalizing, Message: "Finalizing", Duration: 2 * time.Millisecond},
	}

	t.Run("status is idle before a run", func(t *testing.T) {
		router := setupRouter(Options{Tracker: newTracker(t, fast...)})

		w := do(router, http.MethodGet, "/api/v1/discovery/conn-1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.DiscoveryIdle, decode[models.DiscoveryProgress](t, w).Data.CurrentStep)
	})

	t.Run("start then stream to completion", func(t *testing.T) {
		router := setupRouter(Options{Tracker: newTracker(t, fast...)})
		srv := httptest.NewServer(router)
		defer srv.Close()

		w := do(router, http.MethodPost, "/api/v1/discovery/conn-1", nil)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "conn-1", decode[models.DiscoveryProgress](t, w).Data.ConnectionID)

		events := readEvents(t, srv.URL+"/api/v1/discovery/conn-1/progress")

		require.NotEmpty(t, events)
		last := events[len(events)-1]
		assert.Equal(t, models.DiscoveryCompleted, last.CurrentStep)
		assert.Equal(t, 100, last.Progress)
		for i := 1; i < len(events); i++ {
			assert.GreaterOrEqual(t, events[i].Progress, events[i-1].Progress)
		}
	})

	t.Run("second start conflicts", func(t *testing.T) {
		slow := progress.Step{Status: models.DiscoveryConnecting, Message: "Connecting", Duration: time.Hour}
		router := setupRouter(Options{Tracker: newTracker(t, slow)})

		require.Equal(t, http.StatusAccepted, do(router, http.MethodPost, "/api/v1/discovery/conn-1", nil).Code)
		w := do(router, http.MethodPost, "/api/v1/discovery/conn-1", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "DISCOVERY_RUNNING", decode[ErrorDetail](t, w).ErrorCode)
	})

	t.Run("reset returns to idle", func(t *testing.T) {
		slow := progress.Step{Status: models.DiscoveryConnecting, Message: "Connecting", Duration: time.Hour}
		router := setupRouter(Options{Tracker: newTracker(t, slow)})
		do(router, http.MethodPost, "/api/v1/discovery/conn-1", nil)

		w := do(router, http.MethodDelete, "/api/v1/discovery/conn-1", nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = do(router, http.MethodGet, "/api/v1/discovery/conn-1", nil)
		assert.Equal(t, models.DiscoveryIdle, decode[models.DiscoveryProgress](t, w).Data.CurrentStep)
	})

	t.Run("progress without a run", func(t *testing.T) {
		router := setupRouter(Options{Tracker: newTracker(t, fast...)})

		w := do(router, http.MethodGet, "/api/v1/discovery/conn-1/progress", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NO_DISCOVERY_RUN", decode[ErrorDetail](t, w).ErrorCode)
	})
}
