package auth

import "sync"

// SessionStore tracks the current authenticated identity and whether the
// initial auth state is still loading. It is fed by the auth provider's
// change notifications and fans them out to its own watchers, loading flag
// attached. The first provider notification ends the loading phase.
type SessionStore struct {
	mu       sync.Mutex
	identity *Identity
	loading  bool
	watchers []func(*Identity, bool)

	unsubscribe func()
}

func NewSessionStore(svc Service) *SessionStore {
	s := &SessionStore{loading: true}
	s.unsubscribe = svc.OnChange(s.onAuthChange)
	return s
}

func (s *SessionStore) onAuthChange(identity *Identity) {
	s.mu.Lock()
	s.identity = identity
	s.loading = false
	watchers := make([]func(*Identity, bool), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(identity, false)
	}
}

// Watch registers a watcher and fires it once with the current state.
func (s *SessionStore) Watch(fn func(identity *Identity, loading bool)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	identity, loading := s.identity, s.loading
	s.mu.Unlock()

	fn(identity, loading)
}

// Current returns the identity (nil when signed out) and the loading flag.
func (s *SessionStore) Current() (*Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.loading
}

// Close detaches the store from the auth provider.
func (s *SessionStore) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
