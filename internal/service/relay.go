package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/playersync/internal/model"
	"github.com/freeeve/playersync/internal/repository"
)

const relayRetryDelay = 2 * time.Second

// RelayListener feeds events relayed by any instance into the local broadcaster.
type RelayListener struct {
	sub    repository.EventSubscriber
	local  Broadcaster
	resync func()
	retry  time.Duration

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRelayListener creates a RelayListener. Events published while no
// subscription is active are never replayed, so resync runs each time a
// subscription is confirmed; the hub passes a function that drops its
// listeners so they reconnect and receive a fresh snapshot.
func NewRelayListener(sub repository.EventSubscriber, local Broadcaster, resync func()) *RelayListener {
	return &RelayListener{
		sub:    sub,
		local:  local,
		resync: resync,
		retry:  relayRetryDelay,
		ready:  make(chan struct{}),
	}
}

// WithRetryDelay sets how long Start waits before resubscribing.
func (r *RelayListener) WithRetryDelay(d time.Duration) *RelayListener {
	r.retry = d
	return r
}

// Ready is closed once the first subscription is confirmed.
func (r *RelayListener) Ready() <-chan struct{} { return r.ready }

// WaitReady blocks until the first subscription is confirmed or ctx is done.
func (r *RelayListener) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start subscribes until ctx is cancelled, resubscribing after failures.
func (r *RelayListener) Start(ctx context.Context) {
	log.Info().Msg("Relay listener started")
	for {
		err := r.sub.Subscribe(ctx, r.subscribed, func(e model.Event) {
			r.local.BroadcastPlayerEvent(ctx, e)
		})
		if ctx.Err() != nil {
			log.Info().Msg("Relay listener stopped")
			return
		}
		if err != nil {
			log.Error().Err(err).Dur("retryIn", r.retry).Msg("Relay subscription failed")
		} else {
			log.Warn().Dur("retryIn", r.retry).Msg("Relay subscription closed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Relay listener stopped")
			return
		case <-time.After(r.retry):
		}
	}
}

// subscribed runs when a subscription is confirmed. Listeners attached before
// it may have missed events published while none was active.
func (r *RelayListener) subscribed() {
	r.readyOnce.Do(func() { close(r.ready) })
	log.Info().Msg("Relay subscription established, resyncing listeners")
	if r.resync != nil {
		r.resync()
	}
}
