package bridge

import (
	"sync"

	"golang.org/x/oauth2"
)

// State is the connection state of a [Session].
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the shared connection record.
//
// The zero value is a disconnected session without a credential.
type Session struct {
	mu         sync.RWMutex
	id         string
	state      State
	credential *oauth2.Token
	subscribed bool
}

// NewSession returns an empty, disconnected session.
func NewSession() *Session {
	return &Session{}
}

// ID identifies the current connection attempt.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Credential returns the held bearer token, or nil.
func (s *Session) Credential() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Subscribed reports whether the progress subscription is active on the current connection.
func (s *Session) Subscribed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribed
}

// begin starts a new connection attempt. The credential survives reconnects.
func (s *Session) begin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.state = Connecting
	s.subscribed = false
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	if st != Authenticated {
		s.subscribed = false
	}
}

func (s *Session) setCredential(t *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = t
}

func (s *Session) setSubscribed(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = v
}
