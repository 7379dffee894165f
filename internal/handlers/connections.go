// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListConnections(c *gin.Context) {
	conns, err := h.connections.ListConnections(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, conns, "")
}

func (h *Handlers) TestConnection(c *gin.Context) {
	result, err := h.connections.TestConnection(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	message := "connection test failed"
	if result.ConnectionValid {
		message = "connection test passed"
	}
	ok(c, http.StatusOK, result, message)
}

func (h *Handlers) DeleteConnection(c *gin.Context) {
	if err := h.connections.DeleteConnection(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
