package model

import "time"

// Stats holds a player's career numbers.
type Stats struct {
	Matches     int     `json:"matches"`
	RunsOrGoals int     `json:"runs_or_goals"`
	Average     float64 `json:"average"`
}

// Player represents a tracked player record.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Sport     string    `json:"sport"`
	Team      string    `json:"team"`
	Age       int       `json:"age"`
	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"-"`
}

// EventKind identifies the mutation an Event describes.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes one committed mutation. Player is set for created/updated,
// PlayerID for deleted.
type Event struct {
	Kind     EventKind `json:"kind"`
	Player   *Player   `json:"player,omitempty"`
	PlayerID string    `json:"player_id,omitempty"`
}

// PlayerCreated returns the event for a newly stored player.
func PlayerCreated(p *Player) Event {
	return Event{Kind: EventCreated, Player: p}
}

// StatsUpdated returns the event for a player whose stats changed.
func StatsUpdated(p *Player) Event {
	return Event{Kind: EventUpdated, Player: p}
}

// PlayerDeleted returns the event for a removed player.
func PlayerDeleted(id string) Event {
	return Event{Kind: EventDeleted, PlayerID: id}
}
