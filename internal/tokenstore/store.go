// Package tokenstore persists access tokens in a TTL-capable KV backend.
//
// Layout:
//
//	<token_prefix><token>              -> JSON record (guarded fields included)
//	<user_prefix><user_id>:<token>     -> token string
//
// The per-user entries form a secondary index. Guest tokens (user id 0) are
// written to the primary keyspace only. Primary and index entries carry
// mirrored TTLs, but the two writes are not atomic; UserTokenIDs heals index
// entries whose primary record has already expired.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/digitsoft/authtoken-go/internal/core/domain"
	"github.com/digitsoft/authtoken-go/internal/storage"
)

// Config holds the key layout of the store.
type Config struct {
	// TokenPrefix is prepended to token ids for primary records.
	// Default: "tkn:"
	TokenPrefix string

	// UserPrefix is prepended to user ids for index entries.
	// Default: "usr:tkns:"
	UserPrefix string
}

// DefaultConfig returns the default key layout.
func DefaultConfig() Config {
	return Config{
		TokenPrefix: "tkn:",
		UserPrefix:  "usr:tkns:",
	}
}

// Store implements domain.Storage over a storage.KV backend.
type Store struct {
	kv     storage.KV
	codec  domain.Codec
	cfg    Config
	logger *slog.Logger

	metricsOps   *prometheus.CounterVec
	metricsHeals prometheus.Counter
}

// New creates a token store. Tokens loaded through it are bound to the
// store and codec, so entity operations work on them directly.
func New(kv storage.KV, codec domain.Codec, cfg Config, logger *slog.Logger) *Store {
	if cfg.TokenPrefix == "" {
		cfg.TokenPrefix = "tkn:"
	}
	if cfg.UserPrefix == "" {
		cfg.UserPrefix = "usr:tkns:"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		codec:  codec,
		cfg:    cfg,
		logger: logger,
	}
}

// RegisterMetrics registers store metrics with Prometheus.
// Returns the store for method chaining.
func (s *Store) RegisterMetrics(registry *prometheus.Registry) *Store {
	s.metricsOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authtoken",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Token store operations by kind",
	}, []string{"op"})

	s.metricsHeals = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "authtoken",
		Subsystem: "store",
		Name:      "index_heals_total",
		Help:      "Stale per-user index entries removed during listing",
	})

	registry.MustRegister(s.metricsOps, s.metricsHeals)
	return s
}

func (s *Store) count(op string) {
	if s.metricsOps != nil {
		s.metricsOps.WithLabelValues(op).Inc()
	}
}

func (s *Store) tokenKey(id string) string {
	return s.cfg.TokenPrefix + id
}

func (s *Store) userPrefix(userID int64) string {
	return s.cfg.UserPrefix + strconv.FormatInt(userID, 10) + ":"
}

func (s *Store) userTokenKey(userID int64, id string) string {
	return s.userPrefix(userID) + id
}

// realTTL computes the remaining lifetime of a token.
//
// A nil TTL means the token never expires (ok, no expiry). With an absolute
// expiry set, the remainder is exp-now; otherwise the relative TTL is used
// as is. A non-positive remainder means the token is already dead.
func realTTL(t *domain.AccessToken) (ttl time.Duration, hasExpiry bool) {
	if t.TTL == nil {
		return 0, false
	}
	if t.ExpiresAt != nil {
		return time.Duration(*t.ExpiresAt-time.Now().Unix()) * time.Second, true
	}
	return time.Duration(*t.TTL) * time.Second, true
}

// Token retrieves a token record by id. A miss or an undecodable record
// returns (nil, nil).
func (s *Store) Token(ctx context.Context, id string) (*domain.AccessToken, error) {
	s.count("get")

	data, err := s.kv.Get(ctx, s.tokenKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	t, err := domain.DecodeToken(data)
	if err != nil {
		s.logger.Warn("undecodable token record dropped", "key", s.tokenKey(id))
		return nil, nil
	}

	t.Bind(s, s.codec)
	t.MarkLoaded()
	return t, nil
}

// Tokens retrieves multiple token records in one backend round trip.
// Absent and undecodable ids are omitted from the result.
func (s *Store) Tokens(ctx context.Context, ids []string) (map[string]*domain.AccessToken, error) {
	s.count("mget")

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.tokenKey(id)
	}

	values, err := s.kv.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget tokens: %w", err)
	}

	result := make(map[string]*domain.AccessToken, len(ids))
	for i, data := range values {
		if data == nil {
			continue
		}
		t, err := domain.DecodeToken(data)
		if err != nil {
			s.logger.Warn("undecodable token record dropped", "key", keys[i])
			continue
		}
		t.Bind(s, s.codec)
		t.MarkLoaded()
		result[ids[i]] = t
	}
	return result, nil
}

// SetToken persists a token record and mirrors the per-user index entry.
// A record whose remaining lifetime is already spent is deleted instead,
// reported as (false, nil).
func (s *Store) SetToken(ctx context.Context, t *domain.AccessToken) (bool, error) {
	s.count("set")

	if t.Token == "" {
		return false, domain.ErrMissingArgument.WithDetails("token id is empty")
	}

	ttl, hasExpiry := realTTL(t)
	if hasExpiry && ttl <= 0 {
		if err := s.RemoveToken(ctx, t); err != nil {
			return false, err
		}
		return false, nil
	}

	data, err := t.JSON(true)
	if err != nil {
		return false, fmt.Errorf("encode token: %w", err)
	}

	key := s.tokenKey(t.Token)
	if hasExpiry {
		err = s.kv.SetTTL(ctx, key, data, ttl)
	} else {
		err = s.kv.Set(ctx, key, data)
	}
	if err != nil {
		return false, fmt.Errorf("set token: %w", err)
	}

	if !t.IsGuest() {
		indexKey := s.userTokenKey(t.UserID, t.Token)
		if hasExpiry {
			err = s.kv.SetTTL(ctx, indexKey, []byte(t.Token), ttl)
		} else {
			err = s.kv.Set(ctx, indexKey, []byte(t.Token))
		}
		if err != nil {
			return false, fmt.Errorf("set token index: %w", err)
		}
	}
	return true, nil
}

// RemoveToken deletes a token record and its index entry. Removing an
// absent token is not an error.
func (s *Store) RemoveToken(ctx context.Context, t *domain.AccessToken) error {
	s.count("remove")

	if t.Token == "" {
		return nil
	}

	keys := []string{s.tokenKey(t.Token)}
	if !t.IsGuest() {
		keys = append(keys, s.userTokenKey(t.UserID, t.Token))
	}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// TokenExists checks primary-record existence only.
func (s *Store) TokenExists(ctx context.Context, id string) (bool, error) {
	s.count("exists")

	found, err := s.kv.Exists(ctx, s.tokenKey(id))
	if err != nil {
		return false, fmt.Errorf("token exists: %w", err)
	}
	return found, nil
}

// UserTokenIDs lists the token ids indexed for a user.
//
// Index entries whose primary record has expired are deleted as they are
// discovered, so the index converges without a dedicated reaper.
func (s *Store) UserTokenIDs(ctx context.Context, userID int64) ([]string, error) {
	s.count("list")

	indexKeys, err := s.kv.KeysByPrefix(ctx, s.userPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("list user tokens: %w", err)
	}
	if len(indexKeys) == 0 {
		return nil, nil
	}

	ids := make([]string, len(indexKeys))
	primaryKeys := make([]string, len(indexKeys))
	prefixLen := len(s.userPrefix(userID))
	for i, key := range indexKeys {
		ids[i] = key[prefixLen:]
		primaryKeys[i] = s.tokenKey(ids[i])
	}

	values, err := s.kv.MGet(ctx, primaryKeys)
	if err != nil {
		return nil, fmt.Errorf("check user tokens: %w", err)
	}

	var live []string
	var stale []string
	for i, data := range values {
		if data == nil {
			stale = append(stale, indexKeys[i])
			continue
		}
		live = append(live, ids[i])
	}

	if len(stale) > 0 {
		if err := s.kv.Delete(ctx, stale...); err != nil {
			return nil, fmt.Errorf("heal user index: %w", err)
		}
		if s.metricsHeals != nil {
			s.metricsHeals.Add(float64(len(stale)))
		}
		s.logger.Debug("healed stale index entries",
			"user_id", userID,
			"count", len(stale))
	}
	return live, nil
}

// UserTokens lists the full token records for a user.
func (s *Store) UserTokens(ctx context.Context, userID int64) ([]*domain.AccessToken, error) {
	ids, err := s.UserTokenIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	byID, err := s.Tokens(ctx, ids)
	if err != nil {
		return nil, err
	}

	tokens := make([]*domain.AccessToken, 0, len(byID))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

// SetUserTokens wholesale-replaces the per-user index. Only index entries
// are written; primary records are left untouched. Already-expired tokens
// are skipped.
func (s *Store) SetUserTokens(ctx context.Context, userID int64, tokens []*domain.AccessToken) error {
	s.count("set_list")

	if userID == domain.GuestUserID {
		return nil
	}

	existing, err := s.kv.KeysByPrefix(ctx, s.userPrefix(userID))
	if err != nil {
		return fmt.Errorf("list user tokens: %w", err)
	}
	if len(existing) > 0 {
		if err := s.kv.Delete(ctx, existing...); err != nil {
			return fmt.Errorf("clear user index: %w", err)
		}
	}

	for _, t := range tokens {
		if t == nil || t.Token == "" || t.UserID != userID {
			continue
		}
		ttl, hasExpiry := realTTL(t)
		if hasExpiry && ttl <= 0 {
			continue
		}

		indexKey := s.userTokenKey(userID, t.Token)
		if hasExpiry {
			err = s.kv.SetTTL(ctx, indexKey, []byte(t.Token), ttl)
		} else {
			err = s.kv.Set(ctx, indexKey, []byte(t.Token))
		}
		if err != nil {
			return fmt.Errorf("set token index: %w", err)
		}
	}
	return nil
}

// RemoveUserTokens deletes every token of a user, primary records and
// index entries both. Returns the number of tokens removed.
func (s *Store) RemoveUserTokens(ctx context.Context, userID int64) (int, error) {
	s.count("remove_list")

	ids, err := s.UserTokenIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)*2)
	for _, id := range ids {
		keys = append(keys, s.tokenKey(id), s.userTokenKey(userID, id))
	}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("remove user tokens: %w", err)
	}
	return len(ids), nil
}

// TokenIDs lists every primary token id in the store. Intended for
// administrative tooling, not hot paths.
func (s *Store) TokenIDs(ctx context.Context) ([]string, error) {
	s.count("scan")

	keys, err := s.kv.KeysByPrefix(ctx, s.cfg.TokenPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan tokens: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, s.cfg.TokenPrefix))
	}
	return ids, nil
}

var _ domain.Storage = (*Store)(nil)
