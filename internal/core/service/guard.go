package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/digitsoft/authtoken-go/internal/core/domain"
)

// DefaultInputKey is the query/body parameter name the guard reads the
// token from.
const DefaultInputKey = "token"

// Guard authenticates a single request from an access token.
//
// The token string is resolved from the request in fixed order: query
// parameter, body parameter, bearer header, basic-auth password. A string
// that fails codec validation never reaches storage. Lookup misses,
// expired tokens and backend failures all degrade to the unauthenticated
// state; Authenticate is the only operation that raises.
//
// Resolution results are cached per request. A Guard is not safe for
// concurrent use; create one per request.
type Guard struct {
	store    domain.Storage
	codec    domain.Codec
	provider UserProvider
	factory  *TokenFactory
	logger   *slog.Logger

	inputKey string
	noReset  bool

	request Request

	token         *domain.AccessToken
	tokenResolved bool
	user          User
	userResolved  bool
	lastAttempted User
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithInputKey overrides the query/body parameter name.
func WithInputKey(key string) GuardOption {
	return func(g *Guard) { g.inputKey = key }
}

// WithoutRequestReset keeps cached resolution results across SetRequest
// calls. Intended for long-lived guards serving a single principal.
func WithoutRequestReset() GuardOption {
	return func(g *Guard) { g.noReset = true }
}

// WithTokenFactory enables credential-only logins: Once mints a token for
// the matched user through the factory.
func WithTokenFactory(f *TokenFactory) GuardOption {
	return func(g *Guard) { g.factory = f }
}

// WithGuardLogger sets the guard logger.
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) { g.logger = logger }
}

// NewGuard creates a guard over the given store, codec and user provider.
func NewGuard(store domain.Storage, codec domain.Codec, provider UserProvider, opts ...GuardOption) *Guard {
	g := &Guard{
		store:    store,
		codec:    codec,
		provider: provider,
		logger:   slog.Default(),
		inputKey: DefaultInputKey,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetRequest attaches the request to read token material from. Cached
// resolution results are cleared only when the request identity actually
// changes, and never for guards built with WithoutRequestReset.
func (g *Guard) SetRequest(r Request) *Guard {
	if g.request == r {
		return g
	}
	g.request = r
	if !g.noReset {
		g.token = nil
		g.tokenResolved = false
		g.user = nil
		g.userResolved = false
		g.lastAttempted = nil
	}
	return g
}

// Request returns the attached request, or nil.
func (g *Guard) Request() Request {
	return g.request
}

// TokenString resolves the raw token string from the request without
// touching storage. Returns "" when the request carries none.
func (g *Guard) TokenString() string {
	if g.request == nil {
		return ""
	}
	if tok := g.request.Query(g.inputKey); tok != "" {
		return tok
	}
	if tok := g.request.Input(g.inputKey); tok != "" {
		return tok
	}
	if tok := g.request.BearerToken(); tok != "" {
		return tok
	}
	if tok, ok := g.request.BasicAuthPassword(); ok {
		return tok
	}
	return ""
}

// Token resolves and caches the access token of the current request.
// Returns nil for absent, malformed, unknown and expired tokens.
func (g *Guard) Token(ctx context.Context) *domain.AccessToken {
	if g.tokenResolved {
		return g.token
	}
	g.tokenResolved = true

	raw := g.TokenString()
	if raw == "" {
		return nil
	}
	if !g.codec.Validate(raw) {
		g.logger.Debug("request token failed structural validation")
		return nil
	}

	t, err := g.store.Token(ctx, raw)
	if err != nil {
		g.logger.Error("token lookup failed", "error", err)
		return nil
	}
	if t == nil || t.IsExpired() {
		return nil
	}

	g.token = t
	return g.token
}

// SetToken installs a token directly, bypassing request resolution. The
// cached user is recomputed on next access.
func (g *Guard) SetToken(t *domain.AccessToken) *Guard {
	g.token = t
	g.tokenResolved = true
	g.user = nil
	g.userResolved = false
	return g
}

// User resolves and caches the authenticated user. Guest tokens and
// provider misses resolve to nil.
func (g *Guard) User(ctx context.Context) User {
	if g.userResolved {
		return g.user
	}
	g.userResolved = true

	t := g.Token(ctx)
	if t == nil || t.IsExpired() || t.IsGuest() {
		return nil
	}

	user, err := g.provider.RetrieveByID(ctx, t.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			g.logger.Error("user lookup failed", "user_id", t.UserID, "error", err)
		}
		return nil
	}

	g.user = user
	return g.user
}

// SetUser installs a user directly, marking the guard authenticated.
func (g *Guard) SetUser(user User) *Guard {
	g.user = user
	g.userResolved = true
	return g
}

// HasUser reports whether a user is already cached, without resolving.
func (g *Guard) HasUser() bool {
	return g.user != nil
}

// ID returns the authenticated user id.
func (g *Guard) ID(ctx context.Context) (int64, bool) {
	user := g.User(ctx)
	if user == nil {
		return 0, false
	}
	return user.AuthID(), true
}

// Check reports whether the request is authenticated as a user.
func (g *Guard) Check(ctx context.Context) bool {
	return g.User(ctx) != nil
}

// Guest reports whether the request is not authenticated as a user.
// A valid guest token still counts as guest.
func (g *Guard) Guest(ctx context.Context) bool {
	return !g.Check(ctx)
}

// Validate reports whether the credentials identify a valid user. The
// matched user is remembered as last attempted for a following Once call;
// the authenticated state is untouched.
func (g *Guard) Validate(ctx context.Context, credentials map[string]string) bool {
	user, err := g.provider.RetrieveByCredentials(ctx, credentials)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) && !domain.IsDomainError(err, domain.ErrMissingArgument.Code) {
			g.logger.Error("credential lookup failed", "error", err)
		}
		return false
	}
	g.lastAttempted = user
	return g.provider.ValidateCredentials(ctx, user, credentials)
}

// Once authenticates the guard from credentials for the current request
// only, minting a fresh token for the matched user when a token factory
// is attached.
func (g *Guard) Once(ctx context.Context, credentials map[string]string) bool {
	if !g.Validate(ctx, credentials) {
		return false
	}
	user := g.lastAttempted

	if g.factory != nil {
		t, err := g.factory.CreateFor(ctx, user.AuthID(), "", nil)
		if err != nil {
			g.logger.Error("token issuance failed", "user_id", user.AuthID(), "error", err)
			return false
		}
		g.SetToken(t)
	}

	g.SetUser(user)
	return true
}

// Authenticate returns the authenticated user or raises
// domain.ErrUnauthenticated. This is the single raising operation of the
// guard.
func (g *Guard) Authenticate(ctx context.Context) (User, error) {
	if user := g.User(ctx); user != nil {
		return user, nil
	}
	return nil, domain.ErrUnauthenticated
}

// Logout removes the current token from storage and resets the guard.
func (g *Guard) Logout(ctx context.Context) error {
	if g.token != nil {
		if err := g.token.Remove(ctx); err != nil {
			return err
		}
	}
	g.token = nil
	g.tokenResolved = false
	g.user = nil
	g.userResolved = false
	g.lastAttempted = nil
	return nil
}
