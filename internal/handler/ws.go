package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YannKr/tunesync/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// clients are native apps; there is no browser origin to check
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := h.Sessions.Registry().Open()
	slog.Info("client connected", "conn", c.ID, "remote", r.RemoteAddr)

	go writePump(ws, c)
	h.readPump(r.Context(), ws, c)
}

// readPump feeds frames to the dispatcher in arrival order. It owns the
// registry entry and removes it when the socket goes away.
func (h *Handler) readPump(ctx context.Context, ws *websocket.Conn, c *session.Connection) {
	defer func() {
		h.Sessions.Registry().Remove(c.ID)
		ws.Close()
		slog.Info("client disconnected", "conn", c.ID)
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read", "conn", c.ID, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		h.Sessions.Handle(ctx, c, string(data))
		if c.State() == session.Closed {
			return
		}
	}
}

// writePump drains the connection's outbound channel onto the socket. A
// closed channel means the session ended; the peer gets a close frame.
func writePump(ws *websocket.Conn, c *session.Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Outbound():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				slog.Debug("websocket write", "conn", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
