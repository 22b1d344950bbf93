package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"minetrack/internal/logging"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []string
	onDone func(string)
}

func (r *frameRecorder) HandleFrame(frame []byte) error {
	r.mu.Lock()
	r.frames = append(r.frames, string(frame))
	r.mu.Unlock()
	if r.onDone != nil {
		r.onDone(string(frame))
	}
	return nil
}

func (r *frameRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientSynthesizesConnectAndDisconnect(t *testing.T) {
	requested := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err == nil {
			requested <- string(msg)
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"setGraphDuration","data":60000}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"add","data":[]}`))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec := &frameRecorder{onDone: func(f string) {
		if f == string(DisconnectFrame) {
			cancel()
		}
	}}
	c := NewClient(Options{URL: wsURL(srv), RequestHistoryGraph: true, ReconnectDelay: time.Millisecond, Logger: logging.Discard()}, rec)
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := rec.snapshot()
	want := []string{
		string(ConnectFrame),
		`{"event":"setGraphDuration","data":60000}`,
		`{"event":"add","data":[]}`,
		string(DisconnectFrame),
	}
	if len(got) != len(want) {
		t.Fatalf("frames=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d = %s, want %s", i, got[i], want[i])
		}
	}
	select {
	case msg := <-requested:
		if msg != `{"event":"requestHistoryGraph"}` {
			t.Fatalf("unexpected request %s", msg)
		}
	default:
		t.Fatalf("server never received the history request")
	}
}

func TestClientGivesUpAfterAttempts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	rec := &frameRecorder{}
	c := NewClient(Options{URL: url, ReconnectDelay: time.Millisecond, ReconnectAttempts: 2, Logger: logging.Discard()}, rec)
	err := c.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "giving up after 2 attempts") {
		t.Fatalf("expected give-up error, got %v", err)
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("expected no frames, got %d", n)
	}
}

func TestClientStopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &frameRecorder{onDone: func(f string) {
		if f == string(ConnectFrame) {
			cancel()
		}
	}}
	done := make(chan error, 1)
	go func() {
		done <- NewClient(Options{URL: wsURL(srv), Logger: logging.Discard()}, rec).Run(ctx)
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("expected only the connect frame, got %v", got)
	}
}

func TestMultiSinkDeliversToAll(t *testing.T) {
	var a, b frameRecorder
	boom := errors.New("boom")
	ms := NewMultiSink(SinkFunc(func([]byte) error { return boom }), &a, nil, &b)
	err := ms.HandleFrame([]byte("x"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(a.snapshot()) != 1 || len(b.snapshot()) != 1 {
		t.Fatalf("frame not delivered to every sink")
	}
}
