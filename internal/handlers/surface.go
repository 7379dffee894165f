// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/schemascope/core/internal/render"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	maxInputSize = 64 << 10

	// frameError reports rejected input back to the client.
	frameError render.FrameKind = "error"
)

func (h *Handlers) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4 << 10,
		WriteBufferSize: 64 << 10,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return h.allowedOrigin == "*" || origin == "" || origin == h.allowedOrigin
		},
	}
}

// Surface attaches a browser to a session. The server streams frames; the
// client sends pointer input.
func (h *Handlers) Surface(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}

	ws, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade the websocket", "session_id", s.ID, "error", err)
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxInputSize)

	frames, detach := s.Hub.Subscribe()
	defer detach()
	h.logger.Info("surface attached", "session_id", s.ID)

	rejects := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var in render.Input
			if err := ws.ReadJSON(&in); err != nil {
				h.logger.Debug("surface detached", "session_id", s.ID, "error", err)
				return
			}
			if err := in.Validate(); err != nil {
				reject(rejects, err.Error())
				continue
			}
			if err := s.Viewer.Input(in); err != nil {
				reject(rejects, err.Error())
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case f, open := <-frames:
			if !open {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
				if !s.Hub.Closed() {
					h.logger.Warn("surface fell behind, detaching", "session_id", s.ID)
					msg = websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "fell behind, reconnect to resync")
				}
				_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
			if err := write(ws, f); err != nil {
				return
			}
		case msg := <-rejects:
			if err := write(ws, render.Frame{Kind: frameError, Error: msg}); err != nil {
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func write(ws *websocket.Conn, f render.Frame) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(f)
}

func reject(ch chan<- string, msg string) {
	select {
	case ch <- msg:
	default:
	}
}
