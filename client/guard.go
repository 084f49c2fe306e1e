package client

import (
	"context"
	"sync"

	"portfolio/models"
)

// LoginPath is where an unauthenticated admin is sent.
const LoginPath = "/admin/login"

type GuardState int

const (
	Checking GuardState = iota
	Authenticated
	Unauthenticated
)

func (s GuardState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "checking"
	}
}

// Guard tracks whether the admin session is valid. The state is never
// assumed: every protected navigation calls Check again.
type Guard struct {
	client *Client

	mu    sync.RWMutex
	state GuardState
	user  *models.User
}

func NewGuard(c *Client) *Guard {
	return &Guard{client: c, state: Checking}
}

func (g *Guard) State() GuardState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Guard) User() *models.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user
}

func (g *Guard) set(state GuardState, user *models.User) {
	g.mu.Lock()
	g.state = state
	g.user = user
	g.mu.Unlock()
}

// Check asks the server for the current session. Any failure resolves to
// Unauthenticated; the error is returned for reporting.
func (g *Guard) Check(ctx context.Context) (GuardState, error) {
	g.set(Checking, nil)

	session, err := g.client.Me(ctx)
	switch {
	case err != nil:
		g.set(Unauthenticated, nil)
		return Unauthenticated, err
	case !session.Authenticated || session.User == nil:
		g.set(Unauthenticated, nil)
		return Unauthenticated, nil
	}

	g.set(Authenticated, session.User)
	return Authenticated, nil
}

// Redirect returns the login path once the check resolved negatively. While
// checking it returns false so the caller waits instead of redirecting.
func (g *Guard) Redirect() (string, bool) {
	if g.State() == Unauthenticated {
		return LoginPath, true
	}
	return "", false
}

// Observe inspects the error of a data query. A 401 moves the guard to
// Unauthenticated and is swallowed; other errors are returned unchanged.
func (g *Guard) Observe(err error) error {
	if IsUnauthorized(err) {
		g.set(Unauthenticated, nil)
		return nil
	}
	return err
}

func (g *Guard) Login(ctx context.Context, username, password string) error {
	user, err := g.client.Login(ctx, username, password)
	if err != nil {
		g.set(Unauthenticated, nil)
		return err
	}
	g.set(Authenticated, user)
	return nil
}

func (g *Guard) Logout(ctx context.Context) error {
	err := g.client.Logout(ctx)
	g.set(Unauthenticated, nil)
	return err
}
