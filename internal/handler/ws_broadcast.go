package handler

import (
	"context"

	"github.com/freeeve/playersync/internal/model"
)

// BroadcastPlayerEvent implements service.Broadcaster using the WebSocket hub.
func (h *Hub) BroadcastPlayerEvent(_ context.Context, event model.Event) {
	h.Dispatch(event)
}
