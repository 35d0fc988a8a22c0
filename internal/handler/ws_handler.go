package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/playersync/internal/model"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware
	},
}

// PlayerLister supplies the snapshot sent to new listeners.
type PlayerLister interface {
	ListPlayers(ctx context.Context, sport string) ([]model.Player, error)
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub     *Hub
	players PlayerLister
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *Hub, players PlayerLister) *WSHandler {
	return &WSHandler{hub: hub, players: players}
}

// ServeWS handles GET /ws: upgrades, sends the init snapshot, then streams events.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	l := NewListener(uuid.NewString(), r.RemoteAddr, conn, h.hub.SendBufSize())
	lg := l.logger()
	err = h.hub.Attach(r.Context(), l, func(ctx context.Context) ([]model.Player, error) {
		return h.players.ListPlayers(ctx, "")
	})
	if err != nil {
		lg.Warn().Err(err).Msg("WebSocket attach failed")
		conn.Close()
		return
	}

	go h.readPump(l, conn)
	lg.Info().Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// readPump consumes inbound frames so control messages and disconnects are
// noticed. Client payloads are ignored.
func (h *WSHandler) readPump(l *Listener, conn *websocket.Conn) {
	lg := l.logger()
	defer func() {
		h.hub.Unregister(l)
		conn.Close()
		lg.Info().Msg("WebSocket client disconnected")
	}()

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				lg.Warn().Err(err).Msg("WebSocket unexpected close")
			}
			return
		}
	}
}
