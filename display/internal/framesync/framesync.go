// Package framesync paces a caller that presents frames against a render
// loop that draws them. The caller's Present returns once the loop has
// drawn the frame and started the following tick.
package framesync

import "sync"

type Sync struct {
	mu   sync.Mutex
	cond *sync.Cond

	presented uint64
	drawn     uint64
	shown     uint64
	stopped   bool
}

func New() *Sync {
	s := &Sync{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Present queues the next frame and blocks until the loop has shown it.
// It returns false if the loop stopped first.
func (s *Sync) Present() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.presented++
	seq := s.presented
	for s.shown < seq && !s.stopped {
		s.cond.Wait()
	}
	return s.shown >= seq
}

// TakeFrame is called by the loop when it draws. It reports whether a
// frame was presented since the last draw.
func (s *Sync) TakeFrame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presented <= s.drawn {
		return false
	}
	s.drawn = s.presented
	return true
}

// Tick is called by the loop at the start of each tick. Everything drawn
// so far counts as shown.
func (s *Sync) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > s.shown {
		s.shown = s.drawn
		s.cond.Broadcast()
	}
}

// Stop releases every waiting Present for good.
func (s *Sync) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cond.Broadcast()
}

func (s *Sync) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Counters returns the presented, drawn and shown sequence numbers.
func (s *Sync) Counters() (presented, drawn, shown uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented, s.drawn, s.shown
}
