package reload

import (
	"os"
	"sync"

	"fresco/devproto"
	"fresco/internal/logging"
	"fresco/ui"
	"fresco/watch"
)

var exitProcess = os.Exit

// State is the hot-reload runtime for one application process. It owns
// the template cache and the update slot consumers subscribe to.
type State struct {
	log   *logging.Logger
	cache *Cache
	slot  *watch.Slot[ui.Template]
}

func newState(log *logging.Logger) *State {
	if log == nil {
		log = logging.New(logging.LevelInfo)
	}
	return &State{
		log:   log,
		cache: NewCache(),
		slot:  watch.NewSlot[ui.Template](),
	}
}

// Templates returns every template delivered so far.
func (s *State) Templates() []ui.Template {
	if s == nil {
		return nil
	}
	return s.cache.Snapshot()
}

// Subscribe returns a fresh cursor over template updates. Each
// consumer subscribes once and reads its own cursor.
func (s *State) Subscribe() *watch.Cursor[ui.Template] {
	if s == nil {
		return nil
	}
	return s.slot.Subscribe()
}

// Apply dispatches one watcher message. The reader goroutine calls it
// sequentially, so updates reach the cache and the slot in wire order.
func (s *State) Apply(msg interface{}) {
	if s == nil {
		return
	}
	switch typed := msg.(type) {
	case devproto.TemplateUpdatedMessage:
		s.applyTemplate(typed.Template)
	case devproto.ShutdownMessage:
		s.log.Info("watcher requested shutdown", nil)
		exitProcess(0)
	}
}

// applyTemplate caches the template before publishing it, so a
// subscriber woken by the slot always finds the value in Templates.
func (s *State) applyTemplate(template ui.Template) {
	s.cache.Insert(template)
	if err := s.slot.Send(template); err != nil {
		s.log.Error("publish template update", map[string]string{
			"template": template.Name,
			"error":    err.Error(),
		})
	}
}

type lazyShared struct {
	once  sync.Once
	build func() *State
	state *State
}

func (l *lazyShared) get() *State {
	l.once.Do(func() {
		l.state = l.build()
	})
	return l.state
}

var shared = lazyShared{build: connectShared}

// Shared returns the process-wide hot reload state, connecting to the
// watcher on first use. Concurrent first callers wait for the same
// connection attempt. A failed attempt aborts the process; hot reload
// has no degraded mode.
func Shared() *State {
	return shared.get()
}

func connectShared() *State {
	log := logging.New(logging.LevelInfo)
	url := os.Getenv(envWatchURL)
	if url == "" {
		url = defaultWatchURL
	}
	log.Info("connecting to watcher", map[string]string{"url": url})
	state, err := Connect(Options{URL: url, Logger: log})
	if err != nil {
		log.Error("hot reload unavailable", map[string]string{"error": err.Error()})
		exitProcess(1)
		return nil
	}
	log.Info("hot reload ready", nil)
	return state
}
