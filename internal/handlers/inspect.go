// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/parser"
)

const maxInspectBody = 32 << 20

// InspectResult is a sanitized graph with its stats and integrity report.
type InspectResult struct {
	Graph  models.GraphData  `json:"graph"`
	Stats  models.GraphStats `json:"stats"`
	Report parser.Report     `json:"report"`
}

// Inspect returns the sanitized form of a posted graph.
func Inspect(data models.GraphData) InspectResult {
	clean, report := parser.Sanitize(data)
	return InspectResult{Graph: clean, Stats: models.ComputeStats(clean), Report: report}
}

func (h *Handlers) Inspect(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInspectBody))
	if err != nil {
		badRequest(c, "failed to read body")
		return
	}

	graph, err := parser.ParseGraph(body)
	if err != nil {
		badRequest(c, "invalid graph: "+err.Error())
		return
	}

	env := models.OK(Inspect(*graph), "graph inspected")
	if c.Query("pretty") == "true" {
		c.IndentedJSON(http.StatusOK, env)
		return
	}
	c.JSON(http.StatusOK, env)
}
