package auth

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is returned for a bad email/password pair. The login
// surface shows it inline and nothing else changes.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is the signed-in account as the auth provider reports it.
type Identity struct {
	UID   string
	Email string
}

// Service is the auth provider surface the console depends on: credential
// sign-in, sign-out and change notifications. Observers registered with
// OnChange are invoked immediately with the current identity (nil when signed
// out) and again after every sign-in and sign-out.
type Service interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut()
	OnChange(fn func(*Identity)) (unsubscribe func())
}
