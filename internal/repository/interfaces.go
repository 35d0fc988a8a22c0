package repository

import (
	"context"

	"github.com/freeeve/playersync/internal/model"
)

// PlayerRepository defines player data operations. Lookups return nil, nil
// when the player does not exist.
type PlayerRepository interface {
	Create(ctx context.Context, p model.Player) (*model.Player, error)
	FindByID(ctx context.Context, id string) (*model.Player, error)
	List(ctx context.Context, sport string) ([]model.Player, error)
	UpdateStats(ctx context.Context, id string, stats model.Stats) (*model.Player, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// EventPublisher relays committed events to other service instances.
type EventPublisher interface {
	Publish(ctx context.Context, event model.Event) error
}

// EventSubscriber receives events relayed by other service instances.
// onSubscribed runs once the subscription is confirmed, before any event is
// passed to fn.
type EventSubscriber interface {
	Subscribe(ctx context.Context, onSubscribed func(), fn func(model.Event)) error
}
