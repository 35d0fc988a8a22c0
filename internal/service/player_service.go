package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/playersync/internal/model"
	"github.com/freeeve/playersync/internal/repository"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidPlayer  = errors.New("invalid player")
)

// CreatePlayerInput is the data needed to create a player. Stats is required.
type CreatePlayerInput struct {
	Name  string       `json:"name"`
	Sport string       `json:"sport"`
	Team  string       `json:"team"`
	Age   int          `json:"age"`
	Stats *model.Stats `json:"stats"`
}

// PlayerService handles player mutations and announces each committed change.
type PlayerService struct {
	repo        repository.PlayerRepository
	broadcaster Broadcaster
	newID       func() string
}

// NewPlayerService creates a PlayerService.
func NewPlayerService(repo repository.PlayerRepository, broadcaster Broadcaster) *PlayerService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &PlayerService{repo: repo, broadcaster: broadcaster, newID: uuid.NewString}
}

// ListPlayers returns all players, or only those of one sport.
func (s *PlayerService) ListPlayers(ctx context.Context, sport string) ([]model.Player, error) {
	return s.repo.List(ctx, strings.TrimSpace(sport))
}

// GetPlayer returns a single player.
func (s *PlayerService) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// CreatePlayer stores a new player and broadcasts player_created.
func (s *PlayerService) CreatePlayer(ctx context.Context, in CreatePlayerInput) (*model.Player, error) {
	name := strings.TrimSpace(in.Name)
	sport := strings.TrimSpace(in.Sport)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPlayer)
	case sport == "":
		return nil, fmt.Errorf("%w: sport is required", ErrInvalidPlayer)
	case in.Stats == nil:
		return nil, fmt.Errorf("%w: stats are required", ErrInvalidPlayer)
	case in.Age < 0:
		return nil, fmt.Errorf("%w: age must not be negative", ErrInvalidPlayer)
	}
	if err := validateStats(*in.Stats); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, model.Player{
		ID:    s.newID(),
		Name:  name,
		Sport: sport,
		Team:  strings.TrimSpace(in.Team),
		Age:   in.Age,
		Stats: *in.Stats,
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastPlayerEvent(ctx, model.PlayerCreated(p))
	log.Info().Str("playerId", p.ID).Str("sport", p.Sport).Msg("Player created")
	return p, nil
}

// UpdateStats replaces a player's stats and broadcasts stats_updated.
func (s *PlayerService) UpdateStats(ctx context.Context, id string, stats model.Stats) (*model.Player, error) {
	if err := validateStats(stats); err != nil {
		return nil, err
	}
	p, err := s.repo.UpdateStats(ctx, id, stats)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPlayerNotFound
	}

	s.broadcaster.BroadcastPlayerEvent(ctx, model.StatsUpdated(p))
	return p, nil
}

// DeletePlayer removes a player and broadcasts player_deleted.
func (s *PlayerService) DeletePlayer(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPlayerNotFound
	}

	s.broadcaster.BroadcastPlayerEvent(ctx, model.PlayerDeleted(id))
	log.Info().Str("playerId", id).Msg("Player deleted")
	return nil
}

// seedPlayers is the starter roster inserted into an empty store.
var seedPlayers = []CreatePlayerInput{
	{Name: "Virat Kohli", Sport: "cricket", Team: "India", Age: 36,
		Stats: &model.Stats{Matches: 260, RunsOrGoals: 12040, Average: 59.3}},
	{Name: "Lionel Messi", Sport: "football", Team: "Inter Miami", Age: 37,
		Stats: &model.Stats{Matches: 1000, RunsOrGoals: 820, Average: 0.82}},
}

// Seed inserts the starter roster when the store is empty. It runs before any
// listener can attach, so nothing is broadcast. Returns the number inserted.
func (s *PlayerService) Seed(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, in := range seedPlayers {
		if _, err := s.repo.Create(ctx, model.Player{
			ID:    s.newID(),
			Name:  in.Name,
			Sport: in.Sport,
			Team:  in.Team,
			Age:   in.Age,
			Stats: *in.Stats,
		}); err != nil {
			return i, fmt.Errorf("seed %s: %w", in.Name, err)
		}
	}
	return len(seedPlayers), nil
}

func validateStats(st model.Stats) error {
	if st.Matches < 0 || st.RunsOrGoals < 0 || st.Average < 0 {
		return fmt.Errorf("%w: stats must not be negative", ErrInvalidPlayer)
	}
	return nil
}
