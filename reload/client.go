package reload

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"fresco/devproto"
	"fresco/internal/logging"
)

const (
	envWatchURL     = "FRESCO_WATCH_URL"
	defaultWatchURL = "http://127.0.0.1:8737"
	wsWriteTimeout  = 10 * time.Second
)

type wsDialer interface {
	Dial(urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

var watchDialer wsDialer = websocket.DefaultDialer

// Options configure the link to the watcher daemon.
type Options struct {
	// URL is the watcher base URL, http(s) or ws(s). Defaults to
	// FRESCO_WATCH_URL and then to the local watcher address.
	URL string
	// App names this application in the hello handshake. Defaults to
	// the binary name.
	App    string
	Logger *logging.Logger
}

// Connect dials the watcher, performs the hello handshake and starts
// the goroutine that feeds watcher messages into the returned state.
func Connect(opts Options) (*State, error) {
	base := strings.TrimSpace(opts.URL)
	if base == "" {
		base = os.Getenv(envWatchURL)
	}
	if base == "" {
		base = defaultWatchURL
	}
	app := strings.TrimSpace(opts.App)
	if app == "" {
		app = filepath.Base(os.Args[0])
	}

	wsURL, err := reloadWebSocketURL(base)
	if err != nil {
		return nil, err
	}
	conn, _, err := watchDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial watcher: %w", err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteJSON(devproto.NewHello(app)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	state := newState(opts.Logger)
	go state.readLoop(conn)
	return state, nil
}

// readLoop is the single reader for one watcher connection. Messages
// are applied in arrival order. When the link drops the slot is closed
// so subscribers stop waiting while the cache stays readable.
func (s *State) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.log.Warn("watcher link lost", map[string]string{"error": err.Error()})
			s.slot.Close()
			return
		}
		msg, err := devproto.DecodeMessage(payload)
		if err != nil {
			s.log.Error("decode watcher message", map[string]string{"error": err.Error()})
			continue
		}
		s.Apply(msg)
	}
}

func reloadWebSocketURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", errors.New("watcher URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse watcher URL: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported watcher URL scheme")
	}
	basePath := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(basePath, "/ws/reload") {
		parsed.Path = basePath + "/ws/reload"
	}
	return parsed.String(), nil
}
