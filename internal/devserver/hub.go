package devserver

import (
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"fresco/internal/logging"
)

const wsWriteTimeout = 10 * time.Second

// session is one connected application on the reload socket.
type session struct {
	id   string
	app  string
	conn *websocket.Conn

	mu sync.Mutex
}

// write sends one JSON payload under the session's write lock.
func (s *session) write(payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(payload)
}

// hub tracks connected applications and fans payloads out to them.
type hub struct {
	log *logging.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func newHub(log *logging.Logger) *hub {
	return &hub{log: log, sessions: make(map[string]*session)}
}

func (h *hub) add(conn *websocket.Conn, app string) *session {
	s := &session{id: ulid.Make().String(), app: app, conn: conn}
	h.mu.Lock()
	h.sessions[s.id] = s
	count := len(h.sessions)
	h.mu.Unlock()
	h.log.Info("app connected", map[string]string{
		"session": s.id,
		"app":     s.app,
		"count":   strconv.Itoa(count),
	})
	return s
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	count := len(h.sessions)
	h.mu.Unlock()
	if !ok {
		return
	}
	_ = s.conn.Close()
	h.log.Info("app disconnected", map[string]string{
		"session": s.id,
		"app":     s.app,
		"count":   strconv.Itoa(count),
	})
}

// broadcast sends payload to every session and reports how many
// deliveries succeeded. Sessions whose writes fail are dropped.
func (h *hub) broadcast(payload any) int {
	h.mu.Lock()
	targets := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	delivered := 0
	for _, s := range targets {
		if err := s.write(payload); err != nil {
			h.log.Warn("session write failed", map[string]string{
				"session": s.id,
				"app":     s.app,
				"error":   err.Error(),
			})
			h.remove(s.id)
			continue
		}
		delivered++
	}
	return delivered
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *hub) apps() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.sessions))
	for _, s := range h.sessions {
		names = append(names, s.app)
	}
	return names
}

// closeAll sends a normal close frame to every session and drops them.
func (h *hub) closeAll() {
	h.mu.Lock()
	targets := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "watcher stopping")
	for _, s := range targets {
		s.mu.Lock()
		deadline := time.Now().Add(wsWriteTimeout)
		_ = s.conn.WriteControl(websocket.CloseMessage, frame, deadline)
		_ = s.conn.Close()
		s.mu.Unlock()
	}
}
