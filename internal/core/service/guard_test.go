package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/digitsoft/authtoken-go/internal/core/domain"
	"github.com/digitsoft/authtoken-go/internal/storage"
	"github.com/digitsoft/authtoken-go/internal/tokenstore"
	"github.com/digitsoft/authtoken-go/pkg/token"
)

// fakeRequest is a scriptable Request.
type fakeRequest struct {
	query     map[string]string
	input     map[string]string
	header    map[string]string
	bearer    string
	basicPass string
}

func (r *fakeRequest) Query(name string) string  { return r.query[name] }
func (r *fakeRequest) Input(name string) string  { return r.input[name] }
func (r *fakeRequest) Header(name string) string { return r.header[name] }
func (r *fakeRequest) BearerToken() string       { return r.bearer }
func (r *fakeRequest) BasicAuthPassword() (string, bool) {
	return r.basicPass, r.basicPass != ""
}

// spyStorage counts lookups on its way to the real store.
type spyStorage struct {
	domain.Storage
	tokenCalls int
}

func (s *spyStorage) Token(ctx context.Context, id string) (*domain.AccessToken, error) {
	s.tokenCalls++
	return s.Storage.Token(ctx, id)
}

type guardFixture struct {
	guard    *Guard
	store    *tokenstore.Store
	spy      *spyStorage
	codec    *token.Codec
	provider *MemoryUserProvider
}

func newGuardFixture(t *testing.T, opts ...GuardOption) *guardFixture {
	t.Helper()

	kv := storage.NewMemoryKV(storage.DefaultMemoryConfig(), slog.Default())
	t.Cleanup(func() { kv.Close() })

	codec, err := token.NewCodec(token.DefaultLength)
	if err != nil {
		t.Fatal(err)
	}
	store := tokenstore.New(kv, codec, tokenstore.DefaultConfig(), slog.Default())
	spy := &spyStorage{Storage: store}

	provider := NewMemoryUserProvider()
	if err := provider.AddWithPassword(1, "alice", "secret-pw"); err != nil {
		t.Fatal(err)
	}

	factory := NewTokenFactory(store, codec, DefaultFactoryConfig())
	opts = append([]GuardOption{WithTokenFactory(factory)}, opts...)

	return &guardFixture{
		guard:    NewGuard(spy, codec, provider, opts...),
		store:    store,
		spy:      spy,
		codec:    codec,
		provider: provider,
	}
}

// issueToken persists a token for userID and returns its id.
func (f *guardFixture) issueToken(t *testing.T, userID int64) string {
	t.Helper()

	tok := domain.NewAccessToken(userID, "api").Bind(f.store, f.codec)
	tok.SetTTL(domain.Int64(3600), true)
	if err := tok.EnsureUniqueness(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := tok.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	return tok.Token
}

func TestGuard_ResolutionOrder(t *testing.T) {
	f := newGuardFixture(t)

	tests := []struct {
		name    string
		request *fakeRequest
		want    string
	}{
		{
			"query wins over everything",
			&fakeRequest{
				query:     map[string]string{"token": "from-query"},
				input:     map[string]string{"token": "from-input"},
				bearer:    "from-bearer",
				basicPass: "from-basic",
			},
			"from-query",
		},
		{
			"input wins over headers",
			&fakeRequest{
				input:     map[string]string{"token": "from-input"},
				bearer:    "from-bearer",
				basicPass: "from-basic",
			},
			"from-input",
		},
		{
			"bearer wins over basic",
			&fakeRequest{bearer: "from-bearer", basicPass: "from-basic"},
			"from-bearer",
		},
		{
			"basic password is the last resort",
			&fakeRequest{basicPass: "from-basic"},
			"from-basic",
		},
		{
			"nothing",
			&fakeRequest{},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.guard.SetRequest(tt.request)
			if got := f.guard.TokenString(); got != tt.want {
				t.Errorf("TokenString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGuard_MalformedTokenSkipsStorage(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	f.guard.SetRequest(&fakeRequest{bearer: "definitely-not-a-valid-token"})

	if tok := f.guard.Token(ctx); tok != nil {
		t.Errorf("Token() = %+v, want nil", tok)
	}
	if f.spy.tokenCalls != 0 {
		t.Errorf("storage lookups = %d, structurally invalid token must not reach storage", f.spy.tokenCalls)
	}
}

func TestGuard_Authenticated(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	id := f.issueToken(t, 1)
	f.guard.SetRequest(&fakeRequest{bearer: id})

	if !f.guard.Check(ctx) {
		t.Fatal("Check() = false, want true")
	}
	if f.guard.Guest(ctx) {
		t.Error("Guest() = true for an authenticated request")
	}

	userID, ok := f.guard.ID(ctx)
	if !ok || userID != 1 {
		t.Errorf("ID() = %d/%v, want 1/true", userID, ok)
	}

	user, err := f.guard.Authenticate(ctx)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.AuthID() != 1 {
		t.Errorf("AuthID() = %d, want 1", user.AuthID())
	}
}

func TestGuard_TokenCached(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	id := f.issueToken(t, 1)
	f.guard.SetRequest(&fakeRequest{bearer: id})

	f.guard.Token(ctx)
	f.guard.Token(ctx)
	f.guard.Check(ctx)

	if f.spy.tokenCalls != 1 {
		t.Errorf("storage lookups = %d, want 1 (cached per request)", f.spy.tokenCalls)
	}
}

func TestGuard_UnknownToken(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	// Structurally valid but never issued.
	unknown, err := f.codec.Generate()
	if err != nil {
		t.Fatal(err)
	}
	f.guard.SetRequest(&fakeRequest{bearer: unknown})

	if f.guard.Check(ctx) {
		t.Error("Check() = true for an unknown token")
	}
	if _, err := f.guard.Authenticate(ctx); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("Authenticate() error = %v, want ErrUnauthenticated", err)
	}
}

func TestGuard_ExpiredToken(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	expired := domain.NewAccessToken(1, "api")
	expired.Token = f.issueToken(t, 1)
	expired.TTL = domain.Int64(60)
	expired.ExpiresAt = domain.Int64(time.Now().Unix() - 60)

	f.guard.SetToken(expired)
	if f.guard.Check(ctx) {
		t.Error("Check() = true with an expired token installed")
	}
}

func TestGuard_GuestToken(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	id := f.issueToken(t, domain.GuestUserID)
	f.guard.SetRequest(&fakeRequest{bearer: id})

	if tok := f.guard.Token(ctx); tok == nil {
		t.Fatal("guest token should resolve")
	}
	if f.guard.Check(ctx) {
		t.Error("Check() = true for a guest token")
	}
	if !f.guard.Guest(ctx) {
		t.Error("Guest() = false for a guest token")
	}
}

func TestGuard_SetRequestResets(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	id := f.issueToken(t, 1)
	f.guard.SetRequest(&fakeRequest{bearer: id})
	if !f.guard.Check(ctx) {
		t.Fatal("expected authenticated state")
	}

	// A new request without a token drops the cached identity.
	f.guard.SetRequest(&fakeRequest{})
	if f.guard.Check(ctx) {
		t.Error("Check() = true after switching to a tokenless request")
	}
}

func TestGuard_SetRequestSameIdentityKeepsCache(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	req := &fakeRequest{bearer: f.issueToken(t, 1)}
	f.guard.SetRequest(req)
	if !f.guard.Check(ctx) {
		t.Fatal("expected authenticated state")
	}

	// Re-attaching the same request must not invalidate the cache.
	f.guard.SetRequest(req)
	if !f.guard.Check(ctx) {
		t.Fatal("Check() = false after re-attaching the same request")
	}
	if f.spy.tokenCalls != 1 {
		t.Errorf("storage lookups = %d, want 1 (same request identity)", f.spy.tokenCalls)
	}

	// A different request instance does.
	f.guard.SetRequest(&fakeRequest{bearer: req.bearer})
	f.guard.Check(ctx)
	if f.spy.tokenCalls != 2 {
		t.Errorf("storage lookups = %d, want 2 after a new request", f.spy.tokenCalls)
	}
}

func TestGuard_WithoutRequestReset(t *testing.T) {
	f := newGuardFixture(t, WithoutRequestReset())
	ctx := context.Background()

	id := f.issueToken(t, 1)
	f.guard.SetRequest(&fakeRequest{bearer: id})
	if !f.guard.Check(ctx) {
		t.Fatal("expected authenticated state")
	}

	f.guard.SetRequest(&fakeRequest{})
	if !f.guard.Check(ctx) {
		t.Error("no-reset guard must keep its cached identity across requests")
	}
}

func TestGuard_CustomInputKey(t *testing.T) {
	f := newGuardFixture(t, WithInputKey("api_token"))

	f.guard.SetRequest(&fakeRequest{query: map[string]string{"api_token": "abc"}})
	if got := f.guard.TokenString(); got != "abc" {
		t.Errorf("TokenString() = %q, want abc", got)
	}

	f.guard.SetRequest(&fakeRequest{query: map[string]string{"token": "abc"}})
	if got := f.guard.TokenString(); got != "" {
		t.Errorf("TokenString() = %q, default key must be ignored", got)
	}
}

func TestGuard_ValidateAndOnce(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	good := map[string]string{"login": "alice", "password": "secret-pw"}
	bad := map[string]string{"login": "alice", "password": "wrong"}

	if !f.guard.Validate(ctx, good) {
		t.Error("Validate() = false for good credentials")
	}
	if f.guard.Validate(ctx, bad) {
		t.Error("Validate() = true for bad credentials")
	}
	if f.guard.Check(ctx) {
		t.Error("Validate() must not change guard state")
	}

	if f.guard.Once(ctx, bad) {
		t.Error("Once() = true for bad credentials")
	}
	if !f.guard.Once(ctx, good) {
		t.Fatal("Once() = false for good credentials")
	}
	if !f.guard.Check(ctx) {
		t.Error("Once() should authenticate the guard")
	}
}

func TestGuard_OnceMintsToken(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	if !f.guard.Once(ctx, map[string]string{"login": "alice", "password": "secret-pw"}) {
		t.Fatal("Once() = false for good credentials")
	}

	tok := f.guard.Token(ctx)
	if tok == nil {
		t.Fatal("Token() = nil, credential login must cache a freshly minted token")
	}
	if tok.UserID != 1 {
		t.Errorf("minted token user = %d, want 1", tok.UserID)
	}
	if !f.codec.Validate(tok.Token) {
		t.Errorf("minted token fails validation: %q", tok.Token)
	}

	stored, err := f.store.Token(ctx, tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil {
		t.Error("minted token was not persisted")
	}
}

func TestGuard_ValidateRemembersLastAttempted(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	// A wrong password still matches a user record.
	f.guard.Validate(ctx, map[string]string{"login": "alice", "password": "wrong"})
	if f.guard.lastAttempted == nil {
		t.Fatal("Validate() must remember the matched user")
	}
	if f.guard.lastAttempted.AuthID() != 1 {
		t.Errorf("lastAttempted = %d, want 1", f.guard.lastAttempted.AuthID())
	}

	// Attaching a new request clears it.
	f.guard.SetRequest(&fakeRequest{})
	if f.guard.lastAttempted != nil {
		t.Error("lastAttempted must be cleared on request change")
	}

	// An unknown login matches nothing.
	f.guard.Validate(ctx, map[string]string{"login": "nobody", "password": "x"})
	if f.guard.lastAttempted != nil {
		t.Error("lastAttempted set for an unknown login")
	}
}

func TestGuard_HasUser(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	if f.guard.HasUser() {
		t.Error("HasUser() = true on a fresh guard")
	}

	f.guard.SetRequest(&fakeRequest{bearer: f.issueToken(t, 1)})
	if f.guard.HasUser() {
		t.Error("HasUser() = true before resolution")
	}

	f.guard.Check(ctx)
	if !f.guard.HasUser() {
		t.Error("HasUser() = false after resolution")
	}
}

func TestGuard_Logout(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	id := f.issueToken(t, 1)
	f.guard.SetRequest(&fakeRequest{bearer: id})
	if !f.guard.Check(ctx) {
		t.Fatal("expected authenticated state")
	}

	if err := f.guard.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if f.guard.Check(ctx) {
		t.Error("Check() = true after logout")
	}

	gone, err := f.store.Token(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if gone != nil {
		t.Error("token should be removed from storage on logout")
	}
}
