// Package session owns the client's authenticated session.
//
// A Gate is passed explicitly to every component that talks to protected
// endpoints. It hands out the bearer token, fails fast when there is none,
// and ends the session the first time the backend rejects it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-studio/internal/apiclient"
	"github.com/jonathan/resume-studio/internal/tokenstore"
	"github.com/jonathan/resume-studio/internal/types"
)

// TokenKey is the store key holding the bearer token.
const TokenKey = "token"

// Authenticator is the subset of the API client the gate needs.
type Authenticator interface {
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error)
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error)
	Profile(ctx context.Context, token string) (*types.User, error)
}

// Gate holds the current credential. It is safe for concurrent use.
type Gate struct {
	api    Authenticator
	store  tokenstore.Store
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	token     string
	user      *types.User
	listeners []func()
}

// NewGate returns a logged-out gate.
func NewGate(api Authenticator, store tokenstore.Store, logger zerolog.Logger) *Gate {
	return &Gate{
		api:    api,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the clock used for token expiry checks.
func (g *Gate) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// OnLogout registers fn to run once each time a live session ends.
func (g *Gate) OnLogout(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Login authenticates with email and password and persists the token.
func (g *Gate) Login(ctx context.Context, email, password string) (*types.User, error) {
	resp, err := g.api.Login(ctx, types.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return g.begin(ctx, resp)
}

// Register creates an account, then behaves like Login.
func (g *Gate) Register(ctx context.Context, req types.RegisterRequest) (*types.User, error) {
	resp, err := g.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return g.begin(ctx, resp)
}

func (g *Gate) begin(ctx context.Context, resp *types.AuthResponse) (*types.User, error) {
	if err := g.store.Set(ctx, TokenKey, []byte(resp.AccessToken)); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	g.mu.Lock()
	g.token = resp.AccessToken
	g.user = resp.User
	g.mu.Unlock()

	g.logger.Info().Str("user", resp.User.DisplayName()).Msg("logged in")
	return resp.User, nil
}

// Restore resumes a session from the store. A missing token returns
// (nil, nil). A stored token that is expired, or that the profile endpoint
// does not accept, is cleared; the profile error is returned.
func (g *Gate) Restore(ctx context.Context) (*types.User, error) {
	raw, err := g.store.Get(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	token := string(raw)

	if g.expired(token) {
		g.logger.Info().Msg("stored session expired")
		return nil, g.clearStore(ctx)
	}

	user, err := g.api.Profile(ctx, token)
	if err != nil {
		g.logger.Info().Err(err).Msg("stored session rejected")
		if clearErr := g.clearStore(ctx); clearErr != nil {
			g.logger.Warn().Err(clearErr).Msg("failed to clear session")
		}
		return nil, err
	}

	g.mu.Lock()
	g.token = token
	g.user = user
	g.mu.Unlock()
	return user, nil
}

// Token returns the bearer token, or *apiclient.AuthError without any
// network traffic when there is no session or the token has expired.
func (g *Gate) Token() (string, error) {
	g.mu.RLock()
	token := g.token
	g.mu.RUnlock()

	if token == "" {
		return "", &apiclient.AuthError{Message: "not logged in"}
	}
	if g.expired(token) {
		return "", &apiclient.AuthError{Message: "session expired"}
	}
	return token, nil
}

// User returns the logged-in account, or nil.
func (g *Gate) User() *types.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user
}

// LoggedIn reports whether a session is live.
func (g *Gate) LoggedIn() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token != ""
}

// Logout ends the session and clears the store. Listeners run only when a
// session was live, so concurrent or repeated calls notify exactly once.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	wasLive := g.token != ""
	g.token = ""
	g.user = nil
	listeners := make([]func(), len(g.listeners))
	copy(listeners, g.listeners)
	g.mu.Unlock()

	err := g.clearStore(ctx)

	if wasLive {
		g.logger.Info().Msg("logged out")
		for _, fn := range listeners {
			fn()
		}
	}
	return err
}

// Check ends the session when err is an authentication failure and
// returns err unchanged. Every authenticated call routes its error here.
func (g *Gate) Check(ctx context.Context, err error) error {
	if apiclient.IsAuth(err) {
		if logoutErr := g.Logout(ctx); logoutErr != nil {
			g.logger.Warn().Err(logoutErr).Msg("failed to clear session")
		}
	}
	return err
}

// Authorized runs fn with the current token and routes its error through Check.
func (g *Gate) Authorized(ctx context.Context, fn func(token string) error) error {
	token, err := g.Token()
	if err != nil {
		return g.Check(ctx, err)
	}
	return g.Check(ctx, fn(token))
}

func (g *Gate) clearStore(ctx context.Context) error {
	if err := g.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// expired reports whether token is a JWT whose exp claim has passed.
// The signature is not checked; the backend remains the authority.
// Tokens that are not JWTs never expire locally.
func (g *Gate) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	g.mu.RLock()
	now := g.now
	g.mu.RUnlock()
	return !now().Before(exp.Time)
}
