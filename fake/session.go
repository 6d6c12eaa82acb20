// File: fake/session.go
// Author: momentics <momentics@gmail.com>

package fake

import (
	"sync"

	"github.com/momentics/muxio/api"
)

// Session is a fake api.Session recording GoAway notifications.
type Session struct {
	mu      sync.Mutex
	goAways int
}

var _ api.Session = (*Session)(nil)

// NewSession creates a recording session.
func NewSession() *Session { return &Session{} }

// GoAway implements api.Session.
func (s *Session) GoAway() {
	s.mu.Lock()
	s.goAways++
	s.mu.Unlock()
}

// GoAways reports how many times GoAway was invoked.
func (s *Session) GoAways() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goAways
}
