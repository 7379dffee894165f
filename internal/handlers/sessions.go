// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/schemascope/core/internal/detail"
	"github.com/schemascope/core/internal/interaction"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/render"
	"github.com/schemascope/core/internal/search"
	"github.com/schemascope/core/internal/session"
)

type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoadRequest struct {
	ConnectionID string `json:"connectionId" binding:"required"`
}

type FilterResponse struct {
	Filter models.SearchFilter `json:"filter"`
	Visual search.VisualState  `json:"visual"`
}

type TypesResponse struct {
	NodeTypes []models.NodeType `json:"nodeTypes"`
	EdgeTypes []models.EdgeType `json:"edgeTypes"`
}

type SelectionResponse struct {
	Selection interaction.Selection `json:"selection"`
	Detail    *detail.Detail        `json:"detail,omitempty"`
}

type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=png jpg jpeg dot json"`
}

var exportTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"dot":  "text/vnd.graphviz",
	"json": "application/json",
}

func (h *Handlers) CreateSession(c *gin.Context) {
	var s *session.Session
	s = h.sessions.Create(session.Callbacks{
		OnNodeTapped: func(n models.GraphNode) {
			h.logger.Debug("node tapped", "session_id", s.ID, "node_id", n.ID)
		},
		OnEdgeTapped: func(e models.GraphEdge) {
			h.logger.Debug("edge tapped", "session_id", s.ID, "edge_id", e.ID)
		},
	})
	ok(c, http.StatusCreated, SessionResponse{ID: s.ID, CreatedAt: s.CreatedAt}, "session created")
}

func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// session resolves the :id path parameter or answers 404.
func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handlers) LoadGraph(c *gin.Context) {
	var req LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid load request: "+err.Error())
		return
	}
	s, found := h.session(c)
	if !found {
		return
	}

	summary, err := s.Viewer.Load(c.Request.Context(), req.ConnectionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, summary, "graph loaded")
}

func (h *Handlers) SetFilter(c *gin.Context) {
	var f models.SearchFilter
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c, "invalid filter: "+err.Error())
		return
	}
	s, found := h.session(c)
	if !found {
		return
	}

	visual, err := s.Viewer.SetFilter(f)
	if err != nil {
		h.fail(c, err)
		return
	}
	applied, _ := s.Viewer.Filter()
	ok(c, http.StatusOK, FilterResponse{Filter: applied, Visual: visual}, "filter applied")
}

func (h *Handlers) Stats(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, s.Viewer.Summary(), "")
}

func (h *Handlers) Types(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	summary := s.Viewer.Summary()
	ok(c, http.StatusOK, TypesResponse{NodeTypes: summary.NodeTypes, EdgeTypes: summary.EdgeTypes}, "")
}

func (h *Handlers) Selection(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	resp := SelectionResponse{Selection: s.Viewer.Selection()}
	if d, open := s.Viewer.Detail(); open {
		resp.Detail = &d
	}
	ok(c, http.StatusOK, resp, "")
}

func (h *Handlers) CloseDetail(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	s.Viewer.CloseDetail()
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Input(c *gin.Context) {
	var in render.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid input: "+err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	s, found := h.session(c)
	if !found {
		return
	}

	if err := s.Viewer.Input(in); err != nil {
		h.fail(c, err)
		return
	}
	resp := SelectionResponse{Selection: s.Viewer.Selection()}
	if d, open := s.Viewer.Detail(); open {
		resp.Detail = &d
	}
	ok(c, http.StatusOK, resp, "")
}

func (h *Handlers) View(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}

	var err error
	switch c.Param("action") {
	case "fit":
		err = s.Viewer.Fit()
	case "center":
		err = s.Viewer.Center()
	case "reset":
		err = s.Viewer.ResetZoom()
	default:
		badRequest(c, "unknown view action "+c.Param("action"))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Export(c *gin.Context) {
	var q ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid export request: "+err.Error())
		return
	}
	format := strings.ToLower(q.Format)
	if format == "" {
		format = "png"
	}
	s, found := h.session(c)
	if !found {
		return
	}

	out, err := s.Viewer.Export(format)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="graph.`+format+`"`)
	c.Data(http.StatusOK, exportTypes[format], out)
}
