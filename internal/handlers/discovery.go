// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) StartDiscovery(c *gin.Context) {
	snapshot, err := h.tracker.Start(c.Request.Context(), c.Param("connectionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusAccepted, snapshot, "discovery started")
}

func (h *Handlers) DiscoveryStatus(c *gin.Context) {
	ok(c, http.StatusOK, h.tracker.Status(c.Param("connectionId")), "")
}

// DiscoveryProgress streams snapshots as server-sent "progress" events until
// the run ends or the client goes away.
func (h *Handlers) DiscoveryProgress(c *gin.Context) {
	snapshots, cancel, err := h.tracker.Subscribe(c.Param("connectionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(io.Writer) bool {
		select {
		case p, open := <-snapshots:
			if !open {
				return false
			}
			c.SSEvent("progress", p)
			return !p.CurrentStep.Terminal()
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handlers) ResetDiscovery(c *gin.Context) {
	h.tracker.Stop(c.Param("connectionId"))
	c.Status(http.StatusNoContent)
}
