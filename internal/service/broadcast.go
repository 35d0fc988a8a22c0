package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/playersync/internal/metrics"
	"github.com/freeeve/playersync/internal/model"
	"github.com/freeeve/playersync/internal/repository"
)

// Broadcaster sends committed player events to connected listeners.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastPlayerEvent(ctx context.Context, event model.Event)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastPlayerEvent(context.Context, model.Event) {}

// RelayBroadcaster publishes events to every instance through the relay.
// When publishing fails the event is delivered to local listeners only.
type RelayBroadcaster struct {
	pub   repository.EventPublisher
	local Broadcaster
}

// NewRelayBroadcaster creates a RelayBroadcaster.
func NewRelayBroadcaster(pub repository.EventPublisher, local Broadcaster) *RelayBroadcaster {
	return &RelayBroadcaster{pub: pub, local: local}
}

func (b *RelayBroadcaster) BroadcastPlayerEvent(ctx context.Context, event model.Event) {
	if err := b.pub.Publish(ctx, event); err != nil {
		metrics.RelayPublishFailures.Inc()
		log.Error().Err(err).Str("kind", string(event.Kind)).Msg("Relay publish failed, delivering locally")
		b.local.BroadcastPlayerEvent(ctx, event)
	}
}
