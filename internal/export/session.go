package export

import (
	"context"
	"sync"
)

// Session is the de-duplication scope for recursive sub-model exports. An
// identifier is recorded once its export completes, and every later
// placement of it reuses that output. A Session is safe for concurrent use
// and may be shared by any number of exporters.
type Session struct {
	mu       sync.Mutex
	done     map[uint32]struct{}
	inflight map[uint32]chan struct{}
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		done:     make(map[uint32]struct{}),
		inflight: make(map[uint32]chan struct{}),
	}
}

// Has reports whether the identifier has been exported in this session.
func (s *Session) Has(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.done[id]
	return ok
}

// Len returns the number of exported identifiers.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.done)
}

// Clear forgets every exported identifier.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = make(map[uint32]struct{})
}

// exportOnce runs fn unless id was already exported. Callers racing on the
// same id wait for the running export instead of starting another. The id is
// recorded only when fn succeeds and ctx is still live. ran reports whether
// fn was invoked by this call.
func (s *Session) exportOnce(ctx context.Context, id uint32, fn func() error) (ran bool, err error) {
	for {
		s.mu.Lock()
		if _, ok := s.done[id]; ok {
			s.mu.Unlock()
			return false, nil
		}
		if wait, ok := s.inflight[id]; ok {
			s.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
		ch := make(chan struct{})
		s.inflight[id] = ch
		s.mu.Unlock()

		err = fn()

		s.mu.Lock()
		delete(s.inflight, id)
		if err == nil && ctx.Err() == nil {
			s.done[id] = struct{}{}
		}
		close(ch)
		s.mu.Unlock()
		return true, err
	}
}
