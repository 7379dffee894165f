// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the console API under rg (typically /api/v1).
//
//	POST   /graph/inspect
//	GET    /connections
//	POST   /connections/:id/test
//	DELETE /connections/:id
//	POST   /sessions
//	DELETE /sessions/:id
//	GET    /sessions/:id/surface      websocket
//	POST   /sessions/:id/load
//	PUT    /sessions/:id/filter
//	GET    /sessions/:id/stats
//	GET    /sessions/:id/types
//	GET    /sessions/:id/selection
//	DELETE /sessions/:id/selection
//	POST   /sessions/:id/input
//	POST   /sessions/:id/view/:action fit, center or reset
//	GET    /sessions/:id/export       ?format=png|jpg|dot|json
//	POST   /discovery/:connectionId
//	GET    /discovery/:connectionId
//	GET    /discovery/:connectionId/progress server-sent events
//	DELETE /discovery/:connectionId
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/graph/inspect", h.Inspect)

	if h.connections != nil {
		conns := rg.Group("/connections")
		conns.GET("", h.ListConnections)
		conns.POST("/:id/test", h.TestConnection)
		conns.DELETE("/:id", h.DeleteConnection)
	}

	if h.sessions != nil {
		sessions := rg.Group("/sessions")
		sessions.POST("", h.CreateSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.GET("/:id/surface", h.Surface)
		sessions.POST("/:id/load", h.LoadGraph)
		sessions.PUT("/:id/filter", h.SetFilter)
		sessions.GET("/:id/stats", h.Stats)
		sessions.GET("/:id/types", h.Types)
		sessions.GET("/:id/selection", h.Selection)
		sessions.DELETE("/:id/selection", h.CloseDetail)
		sessions.POST("/:id/input", h.Input)
		sessions.POST("/:id/view/:action", h.View)
		sessions.GET("/:id/export", h.Export)
	}

	if h.tracker != nil {
		discovery := rg.Group("/discovery")
		discovery.POST("/:connectionId", h.StartDiscovery)
		discovery.GET("/:connectionId", h.DiscoveryStatus)
		discovery.GET("/:connectionId/progress", h.DiscoveryProgress)
		discovery.DELETE("/:connectionId", h.ResetDiscovery)
	}
}
