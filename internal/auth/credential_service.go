package auth

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inmuebles_console/internal/model"
)

// CredentialService implements Service against the users table. It keeps the
// current identity in memory; the console is single-tenant so there is at
// most one signed-in identity per process.
type CredentialService struct {
	db *gorm.DB

	mu      sync.Mutex
	current *Identity
	nextID  int
	subs    map[int]func(*Identity)
}

func NewCredentialService(db *gorm.DB) *CredentialService {
	return &CredentialService{
		db:   db,
		subs: make(map[int]func(*Identity)),
	}
}

func (s *CredentialService) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	identity := &Identity{UID: user.UID, Email: user.Email}

	s.mu.Lock()
	s.current = identity
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, identity)
	return identity, nil
}

func (s *CredentialService) SignOut() {
	s.mu.Lock()
	s.current = nil
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, nil)
}

// OnChange registers an observer and fires it once with the current state so
// late subscribers do not miss an already signed-in identity.
func (s *CredentialService) OnChange(fn func(*Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *CredentialService) observersLocked() []func(*Identity) {
	observers := make([]func(*Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	return observers
}

func notify(observers []func(*Identity), identity *Identity) {
	for _, fn := range observers {
		fn(identity)
	}
}
