package client

import (
	"context"
	"sync"
)

// Session holds the caller's bearer token. It replaces a process-wide
// "logged in" flag: components that need auth are handed a *Session and the
// token is refreshed through a single subscription started by Watch.
type Session struct {
	mu    sync.RWMutex
	token string
}

func NewSession(token string) *Session {
	return &Session{token: token}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SetToken replaces the token; an empty token signs the session out.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Watch applies token updates until ctx is cancelled or updates is closed.
// Cancel ctx to unsubscribe. A closed channel signs the session out.
func (s *Session) Watch(ctx context.Context, updates <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case token, ok := <-updates:
			if !ok {
				s.SetToken("")
				return
			}
			s.SetToken(token)
		}
	}
}
