package gate

import (
	"sync"
	"time"

	"inmuebles_console/internal/auth"
)

// State is the screen the console shows: the login view, the short exit
// animation of the login view, or the dashboard.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateTransitioning   State = "transitioning"
	StateAuthorized      State = "authorized"
)

// DeniedMessage is surfaced when a valid account without admin permissions
// signs in.
const DeniedMessage = "Acceso denegado. Esta cuenta no tiene permisos de administrador."

// Gate decides which screen is visible from the session state and the admin
// allow-list. A signed-in identity on the allow-list passes through
// StateTransitioning and lands on StateAuthorized after a fixed visual
// delay; any other identity is signed out on the spot with a denial message.
type Gate struct {
	svc     auth.Service
	allowed map[string]bool
	delay   time.Duration

	mu      sync.Mutex
	state   State
	message string
	prev    *auth.Identity
	denied  bool
	timer   *time.Timer
}

func New(svc auth.Service, allowedUIDs []string, delay time.Duration) *Gate {
	allowed := make(map[string]bool, len(allowedUIDs))
	for _, uid := range allowedUIDs {
		allowed[uid] = true
	}
	return &Gate{
		svc:     svc,
		allowed: allowed,
		delay:   delay,
		state:   StateUnauthenticated,
	}
}

// Bind attaches the gate to the session store. The store replays the current
// session state on Watch, so an identity already present at startup runs the
// same allow-list check as a fresh login.
func (g *Gate) Bind(sessions *auth.SessionStore) {
	sessions.Watch(g.onSession)
}

func (g *Gate) onSession(identity *auth.Identity, loading bool) {
	if loading {
		// Still resolving the initial session; keep showing the login view.
		return
	}

	signOut := false

	g.mu.Lock()
	switch {
	case identity == nil:
		if g.timer != nil {
			g.timer.Stop()
			g.timer = nil
		}
		g.state = StateUnauthenticated
		if g.denied {
			// The sign-out we forced ourselves; the denial message stays up.
			g.denied = false
		} else {
			g.message = ""
		}
	case g.prev == nil:
		if g.allowed[identity.UID] {
			g.message = ""
			g.state = StateTransitioning
			g.timer = time.AfterFunc(g.delay, g.authorize)
		} else {
			g.message = DeniedMessage
			g.denied = true
			signOut = true
		}
	}
	g.prev = identity
	g.mu.Unlock()

	if signOut {
		g.svc.SignOut()
	}
}

func (g *Gate) authorize() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateTransitioning {
		g.state = StateAuthorized
		g.timer = nil
	}
}

// Current returns the visible state and any login-screen message.
func (g *Gate) Current() (State, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.message
}

// Authorized reports whether the dashboard is reachable.
func (g *Gate) Authorized() bool {
	state, _ := g.Current()
	return state == StateAuthorized
}
