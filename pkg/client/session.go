package client

import (
	"fmt"
	"sync"

	"bloodcare/internal/lifecycle"

	"golang.org/x/oauth2"
)

// Identity is the signed-in account as the auth provider reports it
type Identity struct {
	Email   string
	Name    string
	Avatar  string
	Role    Role
	Blocked bool
}

// Viewer is the identity as the lifecycle rules see it
func (i Identity) Viewer() Viewer {
	return lifecycle.Viewer{Email: i.Email, Name: i.Name, Role: i.Role, Blocked: i.Blocked}
}

// Session holds the current identity and its bearer token source.
// It is itself an oauth2.TokenSource so the HTTP transport follows sign-in and sign-out.
type Session struct {
	mu        sync.RWMutex
	identity  *Identity
	source    oauth2.TokenSource
	listeners map[int]func(*Identity)
	nextID    int
}

func NewSession() *Session {
	return &Session{listeners: make(map[int]func(*Identity))}
}

// StaticToken wraps an access token issued by the API
func StaticToken(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

// SignIn replaces the identity and notifies subscribers
func (s *Session) SignIn(id Identity, src oauth2.TokenSource) {
	s.mu.Lock()
	s.identity = &id
	s.source = oauth2.ReuseTokenSource(nil, src)
	listeners := s.snapshot()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(&id)
	}
}

// SignOut drops the identity and notifies subscribers with nil
func (s *Session) SignOut() {
	s.mu.Lock()
	s.identity = nil
	s.source = nil
	listeners := s.snapshot()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// Identity returns the signed-in identity, if any
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Viewer is the zero (anonymous) viewer when nobody is signed in
func (s *Session) Viewer() Viewer {
	id, ok := s.Identity()
	if !ok {
		return Viewer{}
	}
	return id.Viewer()
}

// Token implements oauth2.TokenSource
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()
	if src == nil {
		return nil, fmt.Errorf("%w: no session", ErrAuth)
	}
	return src.Token()
}

// OnAuthChange calls fn after every sign-in (with the identity) and sign-out (with nil).
// The returned func removes the subscription.
func (s *Session) OnAuthChange(fn func(*Identity)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) snapshot() []func(*Identity) {
	out := make([]func(*Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}
