package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/digitsoft/authtoken-go/internal/core/domain"
)

// FactoryConfig holds token issuance policy.
type FactoryConfig struct {
	// ClientIDs is the allow-list of accepted client ids. Empty accepts
	// any client.
	ClientIDs []string

	// DefaultClientID is used when a request names no client.
	// Default: domain.DefaultClientID
	DefaultClientID string

	// TTL is the default lifetime in seconds for user tokens.
	// Zero means tokens never expire.
	TTL int64

	// GuestTTL is the default lifetime in seconds for guest tokens.
	// Zero means guest tokens never expire.
	GuestTTL int64
}

// DefaultFactoryConfig returns the default issuance policy.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		DefaultClientID: domain.DefaultClientID,
		TTL:             3600,
		GuestTTL:        900,
	}
}

// TokenFactory issues access tokens bound to the store and codec, applying
// the client allow-list and per-user rate limits, and announcing every
// issued token on the dispatcher.
type TokenFactory struct {
	store      domain.Storage
	codec      domain.Codec
	dispatcher *domain.Dispatcher
	limiter    *RateLimiterRegistry
	cfg        FactoryConfig
	logger     *slog.Logger
}

// FactoryOption customizes a TokenFactory.
type FactoryOption func(*TokenFactory)

// WithRateLimiter enables per-user issuance rate limiting.
func WithRateLimiter(limiter *RateLimiterRegistry) FactoryOption {
	return func(f *TokenFactory) { f.limiter = limiter }
}

// WithDispatcher sets the event dispatcher for issued tokens.
func WithDispatcher(d *domain.Dispatcher) FactoryOption {
	return func(f *TokenFactory) { f.dispatcher = d }
}

// WithFactoryLogger sets the factory logger.
func WithFactoryLogger(logger *slog.Logger) FactoryOption {
	return func(f *TokenFactory) { f.logger = logger }
}

// NewTokenFactory creates a token factory.
func NewTokenFactory(store domain.Storage, codec domain.Codec, cfg FactoryConfig, opts ...FactoryOption) *TokenFactory {
	if cfg.DefaultClientID == "" {
		cfg.DefaultClientID = domain.DefaultClientID
	}

	f := &TokenFactory{
		store:  store,
		codec:  codec,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultClientID returns the configured fallback client id.
func (f *TokenFactory) DefaultClientID() string {
	return f.cfg.DefaultClientID
}

// ValidClient reports whether clientID passes the allow-list. An empty
// allow-list accepts anything.
func (f *TokenFactory) ValidClient(clientID string) bool {
	if len(f.cfg.ClientIDs) == 0 {
		return true
	}
	for _, id := range f.cfg.ClientIDs {
		if id == clientID {
			return true
		}
	}
	return false
}

// ClientIDFromRequest resolves the client id a request asks for, checking
// the query parameter first, then the header, falling back to the default.
// An id that fails the allow-list degrades to the default as well.
func (f *TokenFactory) ClientIDFromRequest(r Request) string {
	id := r.Query(domain.RequestClientIDParam)
	if id == "" {
		id = r.Header(domain.RequestClientIDHeader)
	}
	if id == "" || !f.ValidClient(id) {
		return f.cfg.DefaultClientID
	}
	return id
}

// CreateFor issues and persists a new token for a user. A nil ttl applies
// the configured default; pointing at a value overrides it (including a
// nil-TTL "never expires" override via domain.Int64 semantics).
func (f *TokenFactory) CreateFor(ctx context.Context, userID int64, clientID string, ttl *int64) (*domain.AccessToken, error) {
	if clientID == "" {
		clientID = f.cfg.DefaultClientID
	}
	if !f.ValidClient(clientID) {
		return nil, domain.ErrClientUnknown.WithDetails("client id " + clientID)
	}

	if f.limiter != nil && !f.limiter.AllowUser(userID) {
		return nil, domain.ErrRateLimited.WithDetails("token issuance limit reached")
	}

	if ttl == nil {
		ttl = f.defaultTTL(userID)
	}

	t := domain.NewAccessToken(userID, clientID).Bind(f.store, f.codec)
	t.SetTTL(ttl, true)

	if err := t.EnsureUniqueness(ctx); err != nil {
		return nil, err
	}
	if _, err := t.Save(ctx); err != nil {
		return nil, err
	}

	if f.dispatcher != nil {
		f.dispatcher.TokenCreated(t)
	}

	f.logger.Debug("token issued",
		"user_id", userID,
		"client_id", clientID,
		"expires", t.ExpiresAt != nil)

	return t, nil
}

// CreateForGuest issues a token carrying the guest sentinel user id.
func (f *TokenFactory) CreateForGuest(ctx context.Context, clientID string) (*domain.AccessToken, error) {
	return f.CreateFor(ctx, domain.GuestUserID, clientID, nil)
}

// FirstFor returns the user's oldest live token for a client, issuing a
// new one when none exists.
func (f *TokenFactory) FirstFor(ctx context.Context, userID int64, clientID string) (*domain.AccessToken, error) {
	if clientID == "" {
		clientID = f.cfg.DefaultClientID
	}

	tokens, err := f.store.UserTokens(ctx, userID)
	if err != nil {
		return nil, err
	}

	var oldest *domain.AccessToken
	for _, t := range tokens {
		if t.ClientID != clientID || t.IsExpired() {
			continue
		}
		if oldest == nil || issuedBefore(t, oldest) {
			oldest = t
		}
	}
	if oldest != nil {
		return oldest, nil
	}

	return f.CreateFor(ctx, userID, clientID, nil)
}

func (f *TokenFactory) defaultTTL(userID int64) *int64 {
	seconds := f.cfg.TTL
	if userID == domain.GuestUserID {
		seconds = f.cfg.GuestTTL
	}
	if seconds <= 0 {
		return nil
	}
	return domain.Int64(seconds)
}

func issuedBefore(a, b *domain.AccessToken) bool {
	now := time.Now().Unix()
	at, bt := now, now
	if a.IssuedAt != nil {
		at = *a.IssuedAt
	}
	if b.IssuedAt != nil {
		bt = *b.IssuedAt
	}
	return at < bt
}
