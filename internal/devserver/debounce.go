package devserver

import "time"

// debouncer delays per-path notifications so editors writing a file
// several times in quick succession trigger one compile. Callers hold
// the watcher lock around schedule and pop.
type debouncer struct {
	duration time.Duration
	pending  map[string]*time.Timer
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{
		duration: duration,
		pending:  make(map[string]*time.Timer),
	}
}

func (d *debouncer) schedule(path string, flush func(string)) {
	if d == nil || d.pending == nil {
		return
	}
	if timer, ok := d.pending[path]; ok {
		timer.Reset(d.duration)
		return
	}
	d.pending[path] = time.AfterFunc(d.duration, func() {
		flush(path)
	})
}

// pop reports whether a flush for path is still wanted.
func (d *debouncer) pop(path string) bool {
	if d == nil || d.pending == nil {
		return false
	}
	if _, ok := d.pending[path]; !ok {
		return false
	}
	delete(d.pending, path)
	return true
}

func (d *debouncer) stop() {
	if d == nil {
		return
	}
	for _, timer := range d.pending {
		timer.Stop()
	}
	d.pending = nil
}
