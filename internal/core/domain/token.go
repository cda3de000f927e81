package domain

import (
	"context"
	"encoding/json"
	"time"
)

// GuestUserID is the reserved user id representing an anonymous session.
const GuestUserID int64 = 0

// DefaultClientID is the fallback client id when none is configured.
const DefaultClientID = "api"

// Request parameter and header names used to select a client id.
const (
	RequestClientIDParam  = "auth_client_id"
	RequestClientIDHeader = "Auth-Client-Id"
)

// Codec validates and generates token strings. Implemented by pkg/token
// bound to the configured random-segment length.
type Codec interface {
	// Generate generates a new token string.
	Generate() (string, error)

	// Validate reports whether a token string is structurally valid.
	Validate(tok string) bool
}

// Storage is the durable token store consumed by entities, the guard,
// session bridges and revocation tooling.
//
// Lookup misses and undecodable records degrade to a nil result, never an
// error; errors are reserved for backend failures.
type Storage interface {
	// Token retrieves a token record by id. A miss returns (nil, nil).
	Token(ctx context.Context, id string) (*AccessToken, error)

	// Tokens retrieves multiple token records. Absent or undecodable ids
	// are silently omitted from the result.
	Tokens(ctx context.Context, ids []string) (map[string]*AccessToken, error)

	// SetToken persists a token record and mirrors the per-user index
	// entry. It reports false when the record was already expired and was
	// deleted instead of written.
	SetToken(ctx context.Context, t *AccessToken) (bool, error)

	// RemoveToken deletes a token record and its index entry. Idempotent.
	RemoveToken(ctx context.Context, t *AccessToken) error

	// TokenExists checks primary-record existence only.
	TokenExists(ctx context.Context, id string) (bool, error)

	// UserTokenIDs lists the token ids indexed for a user, lazily healing
	// index entries whose primary record has expired.
	UserTokenIDs(ctx context.Context, userID int64) ([]string, error)

	// UserTokens lists the full token records for a user.
	UserTokens(ctx context.Context, userID int64) ([]*AccessToken, error)

	// SetUserTokens wholesale-replaces the per-user index.
	SetUserTokens(ctx context.Context, userID int64, tokens []*AccessToken) error
}

// AccessToken binds a token string to a user, client and expiry.
//
// IssuedAt, TTL and ExpiresAt are nil until assigned; a nil TTL means the
// token never expires. Session is an opaque blob owned by a collaborator
// (e.g. a session bridge) and is excluded from serialization unless
// guarded fields are explicitly requested.
type AccessToken struct {
	Token     string
	UserID    int64
	ClientID  string
	IssuedAt  *int64
	TTL       *int64
	ExpiresAt *int64
	Session   string

	saved   bool
	state   *tokenState
	storage Storage
	codec   Codec
}

// NewAccessToken creates an unsaved token entity for the given user and
// client. The token string stays empty until EnsureUniqueness assigns one.
func NewAccessToken(userID int64, clientID string) *AccessToken {
	if clientID == "" {
		clientID = DefaultClientID
	}
	return &AccessToken{
		UserID:   userID,
		ClientID: clientID,
	}
}

// Bind attaches the storage and codec collaborators. Storage-backed
// operations (Save, Remove, EnsureUniqueness, Regenerate) require it.
func (t *AccessToken) Bind(storage Storage, codec Codec) *AccessToken {
	t.storage = storage
	t.codec = codec
	return t
}

// Storage returns the bound storage, or nil.
func (t *AccessToken) Storage() Storage {
	return t.storage
}

// SetTTL sets the time to live in seconds; nil means never expires.
// With overwriteTimestamps, IssuedAt is stamped to now and ExpiresAt is
// recomputed (or cleared when ttl is nil).
func (t *AccessToken) SetTTL(ttl *int64, overwriteTimestamps bool) {
	t.TTL = copyInt64(ttl)
	if !overwriteTimestamps {
		return
	}
	now := time.Now().Unix()
	t.IssuedAt = &now
	if t.TTL != nil {
		exp := now + *t.TTL
		t.ExpiresAt = &exp
	} else {
		t.ExpiresAt = nil
	}
}

// IsExpired reports whether the token has a set expiry in the past.
// Tokens without a TTL never expire.
func (t *AccessToken) IsExpired() bool {
	return t.TTL != nil && t.ExpiresAt != nil && *t.ExpiresAt < time.Now().Unix()
}

// IsGuest reports whether this token carries the guest sentinel user id.
func (t *AccessToken) IsGuest() bool {
	return t.UserID == GuestUserID
}

// Saved reports whether the current state has been persisted.
func (t *AccessToken) Saved() bool {
	return t.saved
}

// NeedsSave reports whether Save would issue a write: the record was
// never persisted, or it changed since the last snapshot.
func (t *AccessToken) NeedsSave() bool {
	return !t.saved || t.IsChanged()
}

// EnsureUniqueness assigns a token string if none is set, then keeps
// regenerating while the store reports the candidate as taken.
//
// Termination relies on the entropy of the generated random segment; two
// concurrent callers may both observe "not exists" for the same candidate
// before either writes.
func (t *AccessToken) EnsureUniqueness(ctx context.Context) error {
	if t.storage == nil || t.codec == nil {
		return ErrTokenUnbound
	}

	if t.Token == "" {
		tok, err := t.codec.Generate()
		if err != nil {
			return ErrInternal.WithCause(err)
		}
		t.Token = tok
	}

	for {
		exists, err := t.storage.TokenExists(ctx, t.Token)
		if err != nil {
			return ErrStorage.WithCause(err)
		}
		if !exists {
			return nil
		}
		tok, err := t.codec.Generate()
		if err != nil {
			return ErrInternal.WithCause(err)
		}
		t.Token = tok
	}
}

// Save persists the record when needed and reports whether the record is
// now considered saved. A save is skipped only when the record is already
// persisted and unchanged since the last snapshot.
func (t *AccessToken) Save(ctx context.Context) (bool, error) {
	if t.storage == nil {
		return false, ErrTokenUnbound
	}

	if t.IssuedAt == nil {
		now := time.Now().Unix()
		t.IssuedAt = &now
	}

	if !t.NeedsSave() {
		return t.saved, nil
	}

	written, err := t.storage.SetToken(ctx, t)
	if err != nil {
		return false, err
	}
	if written {
		t.saved = true
		t.RememberState()
	}
	return written, nil
}

// Remove deletes the record from storage.
func (t *AccessToken) Remove(ctx context.Context) error {
	if t.storage == nil {
		return ErrTokenUnbound
	}
	if err := t.storage.RemoveToken(ctx, t); err != nil {
		return err
	}
	t.saved = false
	return nil
}

// Regenerate discards the token string and assigns a fresh unique one,
// re-stamping the issue time. With persist, the old record is removed
// first and the new one saved afterwards.
func (t *AccessToken) Regenerate(ctx context.Context, persist bool) error {
	if t.storage == nil || t.codec == nil {
		return ErrTokenUnbound
	}

	if persist && t.Token != "" {
		if err := t.storage.RemoveToken(ctx, t); err != nil {
			return err
		}
		t.saved = false
	}

	t.Token = ""
	if err := t.EnsureUniqueness(ctx); err != nil {
		return err
	}
	t.SetTTL(t.TTL, true)

	if persist {
		if _, err := t.Save(ctx); err != nil {
			return err
		}
	}
	return nil
}

// MarkLoaded flags the entity as freshly loaded from storage: persisted,
// with the change-tracking snapshot matching the current field values.
func (t *AccessToken) MarkLoaded() {
	t.saved = true
	t.RememberState()
}

// tokenRecord is the wire and storage encoding of an AccessToken.
type tokenRecord struct {
	Token     string  `json:"token"`
	UserID    int64   `json:"user_id"`
	ClientID  string  `json:"client_id"`
	IssuedAt  *int64  `json:"iat"`
	TTL       *int64  `json:"ttl"`
	ExpiresAt *int64  `json:"exp"`
	Session   *string `json:"session,omitempty"`
}

// JSON encodes the token as a flat JSON object. The guarded session blob
// is included only when withGuarded is set; the canonical storage record
// always requests it.
func (t *AccessToken) JSON(withGuarded bool) ([]byte, error) {
	rec := tokenRecord{
		Token:     t.Token,
		UserID:    t.UserID,
		ClientID:  t.ClientID,
		IssuedAt:  t.IssuedAt,
		TTL:       t.TTL,
		ExpiresAt: t.ExpiresAt,
	}
	if withGuarded {
		session := t.Session
		rec.Session = &session
	}
	return json.Marshal(rec)
}

// MarshalJSON implements json.Marshaler, excluding guarded fields.
func (t *AccessToken) MarshalJSON() ([]byte, error) {
	return t.JSON(false)
}

// DecodeToken decodes a stored JSON record into an entity. The result is
// not yet marked as loaded and has no storage bound.
func DecodeToken(data []byte) (*AccessToken, error) {
	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, ErrTokenMalformed.WithCause(err)
	}

	t := &AccessToken{
		Token:     rec.Token,
		UserID:    rec.UserID,
		ClientID:  rec.ClientID,
		IssuedAt:  rec.IssuedAt,
		TTL:       rec.TTL,
		ExpiresAt: rec.ExpiresAt,
	}
	if rec.Session != nil {
		t.Session = *rec.Session
	}
	return t, nil
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Int64 returns a pointer to v, for the nullable TTL and timestamp fields.
func Int64(v int64) *int64 {
	return &v
}
