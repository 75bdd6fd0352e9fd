package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pixil98/tickmud/internal/game"
	"github.com/pixil98/tickmud/internal/messaging"
	"github.com/pixil98/tickmud/internal/session"
)

// frameConn is a raw client connection that reads and writes whole frames.
type frameConn interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(data []byte) error
	Close() error
}

// Server serves one client connection until it ends.
type Server interface {
	Serve(ctx context.Context, conn session.Conn) error
}

type ConnectionManager struct {
	sessions Server
	broker   messaging.Broker
}

func NewConnectionManager(sessions Server, opts ...ConnectionManagerOpt) *ConnectionManager {
	m := &ConnectionManager{sessions: sessions}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type ConnectionManagerOpt func(*ConnectionManager)

// WithBroker routes outbound frames through the broker instead of writing
// them on the publisher's goroutine.
func WithBroker(b messaging.Broker) ConnectionManagerOpt {
	return func(m *ConnectionManager) {
		m.broker = b
	}
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, fc frameConn) {
	conn, err := m.wrap(ctx, fc)
	if err != nil {
		slog.ErrorContext(ctx, "preparing connection", "error", err)
		_ = fc.Close()
		return
	}

	if err := m.sessions.Serve(ctx, conn); err != nil {
		slog.WarnContext(ctx, "client session", "error", err)
	}
}

// readier is implemented by brokers that start asynchronously.
type readier interface {
	Ready() <-chan struct{}
}

func (m *ConnectionManager) wrap(ctx context.Context, fc frameConn) (session.Conn, error) {
	if m.broker == nil {
		return &clientConn{in: fc, out: &directTransport{fc: fc}}, nil
	}

	if r, ok := m.broker.(readier); ok {
		select {
		case <-r.Ready():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	relay, err := messaging.NewRelay(m.broker, uuid.NewString(), fc)
	if err != nil {
		return nil, err
	}
	return &clientConn{in: fc, out: relay}, nil
}

// clientConn reads from the raw connection and writes through a transport.
type clientConn struct {
	in  frameConn
	out game.Transport
}

func (c *clientConn) ReadFrame(ctx context.Context) ([]byte, error) {
	return c.in.ReadFrame(ctx)
}

func (c *clientConn) Send(v any) error {
	return c.out.Send(v)
}

func (c *clientConn) Close() error {
	return c.out.Close()
}

// directTransport encodes frames and writes them straight to the connection.
type directTransport struct {
	fc frameConn
}

func (t *directTransport) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	return t.fc.WriteFrame(data)
}

func (t *directTransport) Close() error {
	return t.fc.Close()
}
