package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fresco/devproto"
	"fresco/internal/logging"
	"fresco/reload"
	"fresco/ui"
)

const wsReadBufferSize = 1024
const wsWriteBufferSize = 1024
const helloTimeout = 10 * time.Second
const shutdownTimeout = 5 * time.Second

// Server watches source trees, compiles changed files and pushes the
// resulting templates to connected applications.
type Server struct {
	cfg Config
	log *logging.Logger

	cache    *reload.Cache
	hub      *hub
	compiler *compiler
	files    *watcher
	started  time.Time

	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	mu        sync.Mutex
	boundAddr string
}

func New(cfg Config, log *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.New(logging.LevelInfo)
	}
	s := &Server{
		cfg:        cfg,
		log:        log,
		cache:      reload.NewCache(),
		hub:        newHub(log),
		started:    time.Now(),
		shutdownCh: make(chan struct{}),
	}

	comp, err := newCompiler(cfg.Compile, log, s.publish)
	if err != nil {
		return nil, err
	}
	s.compiler = comp

	files, err := newWatcher(cfg, log, s.onSourceChanged)
	if err != nil {
		comp.Close()
		return nil, err
	}
	s.files = files
	return s, nil
}

// Run serves until ctx is cancelled or Stop is called, then broadcasts
// a shutdown to connected apps and stops.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{Handler: s.Handler()}

	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	s.mu.Lock()
	s.boundAddr = listener.Addr().String()
	s.mu.Unlock()
	s.log.Info("watcher listening", map[string]string{"addr": listener.Addr().String()})

	serveErr := make(chan error, 1)
	go func() { serveErr <- httpServer.Serve(listener) }()

	select {
	case <-ctx.Done():
	case <-s.shutdownCh:
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	s.log.Info("watcher stopping", nil)
	s.hub.broadcast(devproto.NewShutdown())
	s.hub.closeAll()
	_ = s.files.Close()
	s.compiler.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stop http server: %w", err)
	}
	return nil
}

// Stop makes Run return. Safe to call more than once.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

// Addr returns the bound listen address once Run has started serving.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundAddr
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/reload", s.handleReloadWS)
	mux.HandleFunc("/ws/logs", s.handleLogsWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/reload", s.handleForceReload)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
	return mux
}

func (s *Server) onSourceChanged(path string) {
	s.compiler.Submit(s.templateName(path), path)
}

// publish records a compiled template and fans it out to every
// connected app. Apps deduplicate on their side, so unchanged bodies
// are still broadcast.
func (s *Server) publish(template ui.Template) {
	if !s.cache.Insert(template) {
		s.log.Debug("template unchanged", map[string]string{"template": template.Name})
	}
	delivered := s.hub.broadcast(devproto.NewTemplateUpdated(template))
	s.log.Info("template broadcast", map[string]string{
		"template":  template.Name,
		"delivered": strconv.Itoa(delivered),
	})
}

// templateName derives the wire name for a source file: its
// slash-separated path relative to the watch root that holds it.
func (s *Server) templateName(path string) string {
	for _, root := range s.cfg.Roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(rel)
	}
	return filepath.Base(path)
}

func (s *Server) handleReloadWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := upgradeWebSocket(w, r)
	if err != nil {
		s.log.Warn("websocket upgrade failed", map[string]string{"error": err.Error()})
		return
	}

	hello, err := readHello(conn)
	if err != nil {
		s.log.Warn("reload handshake rejected", map[string]string{
			"remote_addr": r.RemoteAddr,
			"error":       err.Error(),
		})
		closePolicyViolation(conn, err.Error())
		return
	}

	sess := s.hub.add(conn, hello.App)
	defer s.hub.remove(sess.id)

	if err := s.replay(sess); err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// replay sends every known template to a fresh session so apps started
// after earlier edits still catch up.
func (s *Server) replay(sess *session) error {
	templates := s.cache.Snapshot()
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	for _, template := range templates {
		if err := sess.write(devproto.NewTemplateUpdated(template)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleLogsWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	output, cancel := s.log.Subscribe()
	conn, err := upgradeWebSocket(w, r)
	if err != nil {
		cancel()
		s.log.Warn("websocket upgrade failed", map[string]string{"error": err.Error()})
		return
	}
	defer conn.Close()
	defer cancel()

	for _, entry := range s.log.Buffer().Recent() {
		if err := writeWS(conn, entry); err != nil {
			return
		}
	}

	go func() {
		for entry := range output {
			if err := writeWS(conn, entry); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type healthStatus struct {
	Status    string          `json:"status"`
	Uptime    string          `json:"uptime"`
	Sessions  int             `json:"sessions"`
	Apps      []string        `json:"apps,omitempty"`
	Templates int             `json:"templates"`
	Compiles  []compileRecord `json:"compiles,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	apps := s.hub.apps()
	sort.Strings(apps)
	writeJSON(w, http.StatusOK, healthStatus{
		Status:    "ok",
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Sessions:  s.hub.count(),
		Apps:      apps,
		Templates: s.cache.Len(),
		Compiles:  s.compiler.Recent(),
	})
}

func (s *Server) handleForceReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	queued := s.sweep()
	s.log.Info("full reload requested", map[string]string{
		"remote_addr": r.RemoteAddr,
		"queued":      strconv.Itoa(queued),
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": queued})
}

// sweep queues a compile for every matching file under the watch roots.
func (s *Server) sweep() int {
	queued := 0
	for _, root := range s.cfg.Roots {
		_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if entry.IsDir() || !s.cfg.matchesExtension(path) {
				return nil
			}
			s.compiler.Submit(s.templateName(path), path)
			queued++
			return nil
		})
	}
	return queued
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.log.Info("shutdown requested", map[string]string{"remote_addr": r.RemoteAddr})
	writeJSON(w, http.StatusOK, map[string]any{"status": "stopping"})
	s.Stop()
}

func readHello(conn *websocket.Conn) (devproto.HelloMessage, error) {
	if err := conn.SetReadDeadline(time.Now().Add(helloTimeout)); err != nil {
		return devproto.HelloMessage{}, err
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		return devproto.HelloMessage{}, fmt.Errorf("read hello: %w", err)
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return devproto.HelloMessage{}, err
	}

	msg, err := devproto.DecodeMessage(payload)
	if err != nil {
		return devproto.HelloMessage{}, fmt.Errorf("decode hello: %w", err)
	}
	hello, ok := msg.(devproto.HelloMessage)
	if !ok {
		return devproto.HelloMessage{}, errors.New("expected hello message")
	}
	if hello.ProtocolVersion != devproto.ProtocolVersion {
		return devproto.HelloMessage{}, fmt.Errorf("protocol version %d not supported", hello.ProtocolVersion)
	}
	return hello, nil
}

func upgradeWebSocket(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
		// native apps send no Origin header; the watcher binds loopback
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return upgrader.Upgrade(w, r, nil)
}

func writeWS(conn *websocket.Conn, payload any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(payload)
}

func closePolicyViolation(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(wsWriteTimeout)
	frame := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, truncateCloseReason(reason))
	_ = conn.WriteControl(websocket.CloseMessage, frame, deadline)
	_ = conn.Close()
}

func truncateCloseReason(reason string) string {
	const maxReasonBytes = 123
	if len(reason) <= maxReasonBytes {
		return reason
	}
	return reason[:maxReasonBytes]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
