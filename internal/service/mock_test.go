package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/freeeve/playersync/internal/model"
)

type mockPlayerRepo struct {
	mu      sync.Mutex
	players map[string]*model.Player
	order   []string
	err     error
}

func newMockPlayerRepo() *mockPlayerRepo {
	return &mockPlayerRepo{players: make(map[string]*model.Player)}
}

func (m *mockPlayerRepo) Create(_ context.Context, p model.Player) (*model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.players[p.ID]; ok {
		return nil, errors.New("duplicate id")
	}
	p.CreatedAt = time.Now()
	m.players[p.ID] = &p
	m.order = append(m.order, p.ID)
	cp := p
	return &cp, nil
}

func (m *mockPlayerRepo) FindByID(_ context.Context, id string) (*model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.players[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPlayerRepo) List(_ context.Context, sport string) ([]model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := []model.Player{}
	for _, id := range m.order {
		p, ok := m.players[id]
		if !ok {
			continue
		}
		if sport == "" || p.Sport == sport {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPlayerRepo) UpdateStats(_ context.Context, id string, stats model.Stats) (*model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.players[id]
	if !ok {
		return nil, nil
	}
	p.Stats = stats
	cp := *p
	return &cp, nil
}

func (m *mockPlayerRepo) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.players[id]; !ok {
		return false, nil
	}
	delete(m.players, id)
	return true, nil
}

func (m *mockPlayerRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.players), nil
}

// recordingBroadcaster captures broadcast events in call order.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.Event
}

func (b *recordingBroadcaster) BroadcastPlayerEvent(_ context.Context, e model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBroadcaster) Events() []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Event(nil), b.events...)
}

type mockPublisher struct {
	mu        sync.Mutex
	published []model.Event
	err       error
}

func (p *mockPublisher) Publish(_ context.Context, e model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}

// scriptedSubscriber serves one script entry per Subscribe call: a nil
// error in errs[i] means the subscription is confirmed and batches[i] is
// delivered before the call returns errs[i] (or, for the last entries,
// blocks until ctx is done). Calls past the script confirm and block.
type scriptedSubscriber struct {
	mu      sync.Mutex
	batches [][]model.Event
	errs    []error
	failed  []bool // subscription refused outright, nothing confirmed
	calls   int
}

func (s *scriptedSubscriber) Subscribe(ctx context.Context, onSubscribed func(), fn func(model.Event)) error {
	s.mu.Lock()
	call := s.calls
	s.calls++
	s.mu.Unlock()

	if call < len(s.failed) && s.failed[call] {
		return errors.New("connection refused")
	}
	onSubscribed()
	if call >= len(s.batches) {
		<-ctx.Done()
		return nil
	}
	for _, e := range s.batches[call] {
		fn(e)
	}
	return s.errs[call]
}

func (s *scriptedSubscriber) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
