package reload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fresco/devproto"
	"fresco/internal/logging"
	"fresco/ui"
	"fresco/watch"
)

func waitFor(t *testing.T, timeout time.Duration, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestReloadWebSocketURL(t *testing.T) {
	got, err := reloadWebSocketURL("http://localhost:8737")
	if err != nil {
		t.Fatalf("reloadWebSocketURL error: %v", err)
	}
	if got != "ws://localhost:8737/ws/reload" {
		t.Fatalf("unexpected URL %q", got)
	}

	got, err = reloadWebSocketURL("https://reload.example.com/base/")
	if err != nil {
		t.Fatalf("reloadWebSocketURL error: %v", err)
	}
	if got != "wss://reload.example.com/base/ws/reload" {
		t.Fatalf("unexpected URL %q", got)
	}

	got, err = reloadWebSocketURL("ws://localhost:8737/ws/reload")
	if err != nil {
		t.Fatalf("reloadWebSocketURL error: %v", err)
	}
	if got != "ws://localhost:8737/ws/reload" {
		t.Fatalf("expected suffixed URL to pass through, got %q", got)
	}

	if _, err := reloadWebSocketURL("ftp://localhost"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestConnectDeliversUpdatesAndShutdown(t *testing.T) {
	codes := captureExit(t)
	template := ui.NewTemplate("views/home.fsc", []byte("<div>home</div>"))

	upgrader := websocket.Upgrader{}
	hellos := make(chan devproto.HelloMessage, 1)
	sendTemplate := make(chan struct{})
	sendShutdown := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := devproto.DecodeMessage(payload)
		if err != nil {
			return
		}
		if hello, ok := msg.(devproto.HelloMessage); ok {
			hellos <- hello
		}

		<-sendTemplate
		data, err := devproto.EncodeMessage(devproto.NewTemplateUpdated(template))
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}

		<-sendShutdown
		data, err = devproto.EncodeMessage(devproto.NewShutdown())
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}))
	defer server.Close()

	state, err := Connect(Options{
		URL:    server.URL,
		App:    "demo-app",
		Logger: logging.NewWithOutput(logging.LevelDebug, io.Discard),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	select {
	case hello := <-hellos:
		if hello.ProtocolVersion != devproto.ProtocolVersion {
			t.Fatalf("expected protocol version %d, got %d", devproto.ProtocolVersion, hello.ProtocolVersion)
		}
		if hello.App != "demo-app" {
			t.Fatalf("expected app demo-app, got %q", hello.App)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hello")
	}

	cursor := state.Subscribe()
	close(sendTemplate)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	value, err := cursor.Next(ctx)
	cancel()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !value.Equal(template) {
		t.Fatalf("expected delivered template, got %+v", value)
	}
	if len(state.Templates()) != 1 {
		t.Fatalf("expected cached template, got %d", len(state.Templates()))
	}

	close(sendShutdown)
	waitFor(t, 2*time.Second, func() bool { return codes.Load() == 0 })
}

func TestConnectFailsWhenDialFails(t *testing.T) {
	original := watchDialer
	watchDialer = failingDialer{}
	t.Cleanup(func() { watchDialer = original })

	_, err := Connect(Options{URL: "http://localhost:1", App: "demo-app"})
	if err == nil {
		t.Fatal("expected connect error")
	}
	if !strings.Contains(err.Error(), "dial watcher") {
		t.Fatalf("expected dial error, got %v", err)
	}
}

func TestLinkLossClosesSlotKeepsCache(t *testing.T) {
	template := ui.NewTemplate("views/home.fsc", []byte("<div>home</div>"))

	upgrader := websocket.Upgrader{}
	proceed := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		<-proceed
		data, err := devproto.EncodeMessage(devproto.NewTemplateUpdated(template))
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, data)
		_ = conn.Close()
	}))
	defer server.Close()

	state, err := Connect(Options{
		URL:    server.URL,
		App:    "demo-app",
		Logger: logging.NewWithOutput(logging.LevelDebug, io.Discard),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	cursor := state.Subscribe()
	close(proceed)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	value, err := cursor.Next(ctx)
	cancel()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !value.Equal(template) {
		t.Fatalf("expected delivered template, got %+v", value)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	_, err = cursor.Next(ctx)
	cancel()
	if !errors.Is(err, watch.ErrClosed) {
		t.Fatalf("expected ErrClosed after link loss, got %v", err)
	}

	peeked, ok := cursor.Peek()
	if !ok || !peeked.Equal(template) {
		t.Fatal("expected last template to stay peekable after link loss")
	}
	if len(state.Templates()) != 1 {
		t.Fatal("expected cache to survive link loss")
	}
}
