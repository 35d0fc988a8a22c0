package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/playersync/internal/model"
)

// EventsChannel is the pub/sub channel carrying committed player events.
const EventsChannel = "players:events"

// Publish sends a committed event to every subscribed instance.
func (c *Client) Publish(ctx context.Context, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := c.rdb.Publish(ctx, c.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe delivers relayed events to fn in the order Redis delivers them
// until ctx is cancelled. onSubscribed, if set, runs after Redis confirms the
// subscription. Undecodable payloads are skipped.
func (c *Client) Subscribe(ctx context.Context, onSubscribed func(), fn func(model.Event)) error {
	pubsub := c.rdb.Subscribe(ctx, c.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", c.channel, err)
	}
	if onSubscribed != nil {
		onSubscribed()
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event model.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping undecodable relay payload")
				continue
			}
			fn(event)
		}
	}
}
