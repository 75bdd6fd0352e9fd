package listener

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-testutil"
	"github.com/pixil98/tickmud/internal/messaging"
	"github.com/pixil98/tickmud/internal/session"
)

// echoServer answers every frame with {"echo": frame}.
type echoServer struct{}

func (echoServer) Serve(ctx context.Context, conn session.Conn) error {
	defer func() { _ = conn.Close() }()
	for {
		data, err := conn.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := conn.Send(map[string]string{"echo": string(data)}); err != nil {
			return err
		}
	}
}

type bufferConn struct {
	io.Reader
	bytes.Buffer
}

func (b *bufferConn) Write(p []byte) (int, error) { return b.Buffer.Write(p) }
func (b *bufferConn) Read(p []byte) (int, error)  { return b.Reader.Read(p) }

func TestLineConn_ReadFrame(t *testing.T) {
	tests := map[string]struct {
		input string
		exp   []string
	}{
		"lf":              {input: "a\nb\n", exp: []string{"a", "b"}},
		"crlf":            {input: "a\r\nb\r\n", exp: []string{"a", "b"}},
		"bare cr":         {input: "a\rb\r", exp: []string{"a", "b"}},
		"blank lines":     {input: "\n\n  \na\n", exp: []string{"a"}},
		"no trailing eol": {input: "a\nb", exp: []string{"a", "b"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			lc := newLineConn(&bufferConn{Reader: strings.NewReader(tt.input)}, nil, false)

			var got []string
			for {
				f, err := lc.ReadFrame(context.Background())
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got = append(got, string(f))
			}
			testutil.AssertEqual(t, "frames", fmt.Sprint(got), fmt.Sprint(tt.exp))
		})
	}
}

func TestLineConn_WriteFrame(t *testing.T) {
	tests := map[string]struct {
		crlf bool
		exp  string
	}{
		"lf":   {exp: "{}\n"},
		"crlf": {crlf: true, exp: "{}\r\n"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			bc := &bufferConn{Reader: strings.NewReader("")}
			lc := newLineConn(bc, nil, tt.crlf)
			if err := lc.WriteFrame([]byte("{}")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "written", bc.String(), tt.exp)
		})
	}
}

func TestConnectionManager_Direct(t *testing.T) {
	bc := &bufferConn{Reader: strings.NewReader("ping\n")}
	cm := NewConnectionManager(echoServer{})

	cm.AcceptConnection(context.Background(), newLineConn(bc, nil, false))

	testutil.AssertEqual(t, "reply", bc.String(), "{\"echo\":\"ping\"}\n")
}

func TestWebSocketListener_Handler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	l := NewWebSocketListener(0, "", NewConnectionManager(echoServer{}))
	srv := httptest.NewServer(l.Handler(ctx))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		if resp != nil {
			_ = resp.Body.Close()
		}
	})

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"messageType":"Command"}`)); err != nil {
		t.Fatalf("writing: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	testutil.AssertEqual(t, "echo", got["echo"], `{"messageType":"Command"}`)
	testutil.AssertEqual(t, "default path", l.path, "/ws")
}

// syncBroker delivers publishes immediately on the caller's goroutine.
type syncBroker struct {
	subs map[string]func([]byte)
}

func (b *syncBroker) Publish(subject string, data []byte) error {
	if h := b.subs[subject]; h != nil {
		h(data)
	}
	return nil
}

func (b *syncBroker) Subscribe(subject string, handler func([]byte)) (func(), error) {
	b.subs[subject] = handler
	return func() { delete(b.subs, subject) }, nil
}

func TestConnectionManager_Broker(t *testing.T) {
	bc := &bufferConn{Reader: strings.NewReader("ping\n")}
	broker := &syncBroker{subs: map[string]func([]byte){}}
	cm := NewConnectionManager(echoServer{}, WithBroker(broker))

	cm.AcceptConnection(context.Background(), newLineConn(bc, nil, false))

	testutil.AssertEqual(t, "reply", bc.String(), "{\"echo\":\"ping\"}\n")
	testutil.AssertEqual(t, "unsubscribed", len(broker.subs), 0)
}

// rejectServer answers the first frame with an error and hangs up.
type rejectServer struct{}

func (rejectServer) Serve(ctx context.Context, conn session.Conn) error {
	defer func() { _ = conn.Close() }()
	if _, err := conn.ReadFrame(ctx); err != nil {
		return err
	}
	return conn.Send(map[string]string{"error": "Unauthorized"})
}

func TestConnectionManager_NatsDeliversFinalFrame(t *testing.T) {
	ns, err := messaging.NewNatsServer(messaging.WithPort(-1))
	if err != nil {
		t.Fatalf("creating nats server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ns.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	cm := NewConnectionManager(rejectServer{}, WithBroker(ns))
	for i := range 10 {
		bc := &bufferConn{Reader: strings.NewReader("{}\n")}
		cm.AcceptConnection(ctx, newLineConn(bc, nil, false))
		testutil.AssertEqual(t, fmt.Sprintf("reply %d", i), bc.String(), "{\"error\":\"Unauthorized\"}\n")
	}
}
