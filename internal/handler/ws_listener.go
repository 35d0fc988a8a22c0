package handler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/freeeve/playersync/internal/logger"
)

// transport is the part of *websocket.Conn a Listener writes through.
type transport interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Listener is one connected client's output channel. It is owned by the Hub
// from Attach until it is unregistered.
type Listener struct {
	id     string
	remote string
	conn   transport
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
	dead      atomic.Bool
}

// NewListener wraps conn with an outbound queue of bufSize messages.
func NewListener(id, remote string, conn transport, bufSize int) *Listener {
	if bufSize <= 0 {
		bufSize = sendBufSize
	}
	return &Listener{
		id:     id,
		remote: remote,
		conn:   conn,
		send:   make(chan []byte, bufSize),
		done:   make(chan struct{}),
	}
}

// ID returns the listener's identifier.
func (l *Listener) ID() string { return l.id }

func (l *Listener) logger() zerolog.Logger { return logger.ForListener(l.id, l.remote) }

// Alive reports whether the listener can still receive events.
func (l *Listener) Alive() bool { return !l.dead.Load() }

// enqueue offers data to the outbound queue without blocking. It returns the
// drop reason when the listener is dead or its queue is full.
func (l *Listener) enqueue(data []byte) (reason string, ok bool) {
	if l.dead.Load() {
		return dropSendFailed, false
	}
	select {
	case l.send <- data:
		return "", true
	default:
		return dropOverflow, false
	}
}

// write sends one text frame directly on the transport.
func (l *Listener) write(data []byte, timeout time.Duration) error {
	if err := l.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return l.conn.WriteMessage(websocket.TextMessage, data)
}

// stop marks the listener dead and releases its write pump. Safe to call more than once.
func (l *Listener) stop() {
	l.dead.Store(true)
	l.closeOnce.Do(func() { close(l.done) })
}
