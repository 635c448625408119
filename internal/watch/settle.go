package watch

import (
	"sync"
	"time"
)

// settler delays each path until it has stayed quiet for the settle
// window, then hands it to emit. A new event for the same path resets
// its timer, so files still being written never route early.
type settler struct {
	mu     sync.Mutex
	window time.Duration
	timers map[string]*time.Timer
	emit   func(string)
}

func newSettler(window time.Duration, emit func(string)) *settler {
	return &settler{
		window: window,
		timers: make(map[string]*time.Timer),
		emit:   emit,
	}
}

// touch registers activity on a path, starting or resetting its timer.
// A non-positive window emits immediately.
func (s *settler) touch(path string) {
	if s.window <= 0 {
		s.emit(path)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[path]; ok {
		t.Reset(s.window)
		return
	}
	s.timers[path] = time.AfterFunc(s.window, func() {
		s.forget(path)
		s.emit(path)
	})
}

// cancel drops a pending path without emitting it.
func (s *settler) cancel(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[path]; ok {
		t.Stop()
		delete(s.timers, path)
	}
}

func (s *settler) forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, path)
}

// stop cancels every pending timer.
func (s *settler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path, t := range s.timers {
		t.Stop()
		delete(s.timers, path)
	}
}
