package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// relayFlushTimeout bounds how long Close waits for queued frames.
const relayFlushTimeout = 2 * time.Second

// Broker is a subject-addressed publish/subscribe transport.
type Broker interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// FrameWriter writes one outbound frame to a client connection.
type FrameWriter interface {
	WriteFrame(data []byte) error
	Close() error
}

// SessionSubject is the broker subject carrying frames for one session.
func SessionSubject(sessionID string) string {
	return "session." + sessionID
}

// Relay is a client transport that routes outbound frames through the broker
// so the writer never runs on the publisher's goroutine.
type Relay struct {
	broker  Broker
	subject string
	w       FrameWriter

	once    sync.Once
	unsub   func()
	flushed chan struct{}
	marked  sync.Once
}

func NewRelay(b Broker, sessionID string, w FrameWriter) (*Relay, error) {
	r := &Relay{
		broker:  b,
		subject: SessionSubject(sessionID),
		w:       w,
		flushed: make(chan struct{}),
	}

	unsub, err := b.Subscribe(r.subject, func(data []byte) {
		// An empty payload is the end marker published by Close.
		if len(data) == 0 {
			r.marked.Do(func() { close(r.flushed) })
			return
		}
		if err := w.WriteFrame(data); err != nil {
			slog.Debug("writing relayed frame", "subject", r.subject, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("creating relay: %w", err)
	}
	r.unsub = unsub

	return r, nil
}

// Send encodes v as JSON and publishes it to the session subject.
func (r *Relay) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	return r.broker.Publish(r.subject, data)
}

// Close waits until every frame sent before it has been written, then stops
// relaying and closes the underlying connection.
func (r *Relay) Close() error {
	var err error
	r.once.Do(func() {
		r.flush()
		r.unsub()
		err = r.w.Close()
	})
	return err
}

func (r *Relay) flush() {
	if err := r.broker.Publish(r.subject, []byte{}); err != nil {
		slog.Debug("publishing relay end marker", "subject", r.subject, "error", err)
		return
	}
	select {
	case <-r.flushed:
	case <-time.After(relayFlushTimeout):
		slog.Warn("relay flush timed out", "subject", r.subject)
	}
}
