package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/playersync/internal/metrics"
	"github.com/freeeve/playersync/internal/model"
)

// Message types sent over WebSocket.
const (
	MsgInit          = "init"
	MsgPlayerCreated = "player_created"
	MsgStatsUpdated  = "stats_updated"
	MsgPlayerDeleted = "player_deleted"
)

const (
	dropSendFailed = metrics.DropSendFailed
	dropOverflow   = metrics.DropOverflow
	dropInitFailed = metrics.DropInitFailed
	dropResync     = metrics.DropResync
)

var (
	// ErrHubClosed is returned when attaching to a hub that has been shut down.
	ErrHubClosed = errors.New("hub is closed")
	// ErrListenerDropped is returned by Attach when the listener was dropped
	// before its snapshot went out.
	ErrListenerDropped = errors.New("listener dropped during attach")
)

// InitMessage carries the snapshot every listener receives first.
type InitMessage struct {
	Type    string         `json:"type"`
	Players []model.Player `json:"players"`
}

// EventMessage carries one committed mutation.
type EventMessage struct {
	Type     string        `json:"type"`
	Player   *model.Player `json:"player,omitempty"`
	PlayerID string        `json:"player_id,omitempty"`
}

// eventMessage maps an event onto its wire message.
func eventMessage(e model.Event) (EventMessage, bool) {
	switch e.Kind {
	case model.EventCreated:
		return EventMessage{Type: MsgPlayerCreated, Player: e.Player}, e.Player != nil
	case model.EventUpdated:
		return EventMessage{Type: MsgStatsUpdated, Player: e.Player}, e.Player != nil
	case model.EventDeleted:
		return EventMessage{Type: MsgPlayerDeleted, PlayerID: e.PlayerID}, e.PlayerID != ""
	}
	return EventMessage{}, false
}

// SnapshotFunc loads the current player list for a newly attached listener.
type SnapshotFunc func(ctx context.Context) ([]model.Player, error)

// Hub tracks attached listeners and fans events out to them.
//
// Membership is guarded by mu. Dispatch passes are serialized by dispatchMu so
// every listener observes events in the same order they were dispatched.
type Hub struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	closed    bool

	dispatchMu sync.Mutex

	// pumps counts running write pumps. Add only happens under mu while the
	// hub is open.
	pumps sync.WaitGroup

	sendBufSize int
	writeWait   time.Duration
	pingPeriod  time.Duration
}

// NewHub creates a Hub. Non-positive arguments fall back to the defaults.
func NewHub(bufSize int, writeTimeout time.Duration) *Hub {
	if bufSize <= 0 {
		bufSize = sendBufSize
	}
	if writeTimeout <= 0 {
		writeTimeout = writeWait
	}
	return &Hub{
		listeners:   make(map[*Listener]struct{}),
		sendBufSize: bufSize,
		writeWait:   writeTimeout,
		pingPeriod:  pingPeriod,
	}
}

// SendBufSize returns the outbound queue size for new listeners.
func (h *Hub) SendBufSize() int { return h.sendBufSize }

// Register adds a listener to the hub.
func (h *Hub) Register(l *Listener) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.listeners[l] = struct{}{}
	metrics.Listeners.Set(float64(len(h.listeners)))
	return nil
}

// Unregister removes a listener from the hub. Unregistering a listener that is
// no longer registered is a no-op.
func (h *Hub) Unregister(l *Listener) {
	h.unregister(l, "")
}

func (h *Hub) unregister(l *Listener, reason string) {
	h.mu.Lock()
	_, ok := h.listeners[l]
	delete(h.listeners, l)
	metrics.Listeners.Set(float64(len(h.listeners)))
	h.mu.Unlock()

	l.stop()
	if !ok {
		return
	}
	if reason != "" {
		metrics.ListenersDropped.WithLabelValues(reason).Inc()
		lg := l.logger()
		lg.Warn().Str("reason", reason).Msg("Dropping WebSocket listener")
	}
}

// Active returns the current membership.
func (h *Hub) Active() []*Listener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	active := make([]*Listener, 0, len(h.listeners))
	for l := range h.listeners {
		active = append(active, l)
	}
	return active
}

// ConnectionCount returns the number of registered listeners.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Attach registers l, loads the snapshot and writes it to l before any queued
// event, then starts l's write pump. Registration happens before the snapshot
// is read, so an event racing the read can arrive twice but is never lost.
// On failure l is unregistered.
func (h *Hub) Attach(ctx context.Context, l *Listener, load SnapshotFunc) error {
	if err := h.Register(l); err != nil {
		l.stop()
		return err
	}

	players, err := load(ctx)
	if err != nil {
		h.unregister(l, dropInitFailed)
		return fmt.Errorf("load snapshot: %w", err)
	}
	if players == nil {
		players = []model.Player{}
	}

	data, err := json.Marshal(InitMessage{Type: MsgInit, Players: players})
	if err != nil {
		h.unregister(l, dropInitFailed)
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := l.write(data, h.writeWait); err != nil {
		h.unregister(l, dropInitFailed)
		return fmt.Errorf("send snapshot: %w", err)
	}
	if !l.Alive() {
		h.unregister(l, "")
		return ErrListenerDropped
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		l.stop()
		return ErrHubClosed
	}
	h.pumps.Add(1)
	h.mu.Unlock()

	go h.writePump(l)
	return nil
}

// Dispatch delivers event to every registered listener. Listeners that cannot
// take the event are dropped after the pass; nothing is reported to the caller.
func (h *Hub) Dispatch(event model.Event) {
	msg, ok := eventMessage(event)
	if !ok {
		log.Warn().Str("kind", string(event.Kind)).Msg("Ignoring malformed player event")
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("eventType", msg.Type).Msg("Failed to marshal WebSocket event")
		return
	}

	h.dispatchMu.Lock()
	defer h.dispatchMu.Unlock()

	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return
	}

	type failure struct {
		l      *Listener
		reason string
	}
	var failed []failure
	for _, l := range h.Active() {
		if reason, ok := l.enqueue(data); !ok {
			failed = append(failed, failure{l, reason})
		}
	}
	for _, f := range failed {
		h.unregister(f.l, f.reason)
	}
	metrics.EventsDispatched.WithLabelValues(msg.Type).Inc()
}

// DropAll detaches every current listener but keeps accepting new ones.
// Clients reconnect and start over from a fresh snapshot.
func (h *Hub) DropAll() {
	for _, l := range h.Active() {
		h.unregister(l, dropResync)
	}
}

// Close detaches every listener and rejects further attaches.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	listeners := h.listeners
	h.listeners = make(map[*Listener]struct{})
	metrics.Listeners.Set(0)
	h.mu.Unlock()

	for l := range listeners {
		l.stop()
	}
	log.Info().Int("listeners", len(listeners)).Msg("WebSocket hub closed")
}

// Shutdown closes the hub and waits for every write pump to send its close
// frame and release its connection, or for ctx to end.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.Close()

	done := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writePump drains l's queue onto the transport until l is stopped or a write fails.
func (h *Hub) writePump(l *Listener) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		l.conn.Close()
		h.pumps.Done()
	}()

	for {
		// Pending messages are abandoned once the listener is detached.
		select {
		case <-l.done:
			h.writeClose(l)
			return
		default:
		}

		select {
		case <-l.done:
			h.writeClose(l)
			return
		case message := <-l.send:
			if err := l.write(message, h.writeWait); err != nil {
				h.unregister(l, dropSendFailed)
				return
			}
		case <-ticker.C:
			l.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(l, dropSendFailed)
				return
			}
		}
	}
}

func (h *Hub) writeClose(l *Listener) {
	l.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	l.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
