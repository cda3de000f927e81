package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/digitsoft/authtoken-go/internal/core/domain"
)

// User is an authenticated principal.
type User interface {
	// AuthID returns the numeric identity the token layer stores.
	AuthID() int64
}

// UserProvider resolves users by id or by credentials.
//
// A lookup miss returns domain.ErrUserNotFound; other errors indicate
// backend failures.
type UserProvider interface {
	// RetrieveByID fetches a user by its numeric id.
	RetrieveByID(ctx context.Context, id int64) (User, error)

	// RetrieveByCredentials fetches the user matching non-secret
	// credential fields (e.g. "login").
	RetrieveByCredentials(ctx context.Context, credentials map[string]string) (User, error)

	// ValidateCredentials verifies the secret credential fields against
	// the given user.
	ValidateCredentials(ctx context.Context, user User, credentials map[string]string) bool
}

// Argon2id parameters for password hashing.
const (
	argonTime    = 2
	argonMemory  = 16384
	argonThreads = 2
	argonKeyLen  = 32
	argonSaltLen = 16
)

// HashPassword hashes a password with Argon2id.
// Format: $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword verifies a password against an Argon2id hash.
func VerifyPassword(password, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false
	}
	if parts[1] != "argon2id" {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// MemoryUser is a user record held by MemoryUserProvider.
type MemoryUser struct {
	ID           int64
	Login        string
	PasswordHash string
}

// AuthID implements User.
func (u *MemoryUser) AuthID() int64 {
	return u.ID
}

// MemoryUserProvider is an in-process UserProvider, used by the CLI and
// in tests. Production deployments plug in their own provider.
type MemoryUserProvider struct {
	mu      sync.RWMutex
	byID    map[int64]*MemoryUser
	byLogin map[string]*MemoryUser
}

// NewMemoryUserProvider creates an empty provider.
func NewMemoryUserProvider() *MemoryUserProvider {
	return &MemoryUserProvider{
		byID:    make(map[int64]*MemoryUser),
		byLogin: make(map[string]*MemoryUser),
	}
}

// Add registers a user with a pre-hashed password.
func (p *MemoryUserProvider) Add(user *MemoryUser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[user.ID] = user
	p.byLogin[user.Login] = user
}

// AddWithPassword registers a user, hashing the plain password.
func (p *MemoryUserProvider) AddWithPassword(id int64, login, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	p.Add(&MemoryUser{ID: id, Login: login, PasswordHash: hash})
	return nil
}

// RetrieveByID fetches a user by id.
func (p *MemoryUserProvider) RetrieveByID(ctx context.Context, id int64) (User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	user, ok := p.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// RetrieveByCredentials fetches a user by its "login" credential.
func (p *MemoryUserProvider) RetrieveByCredentials(ctx context.Context, credentials map[string]string) (User, error) {
	login, ok := credentials["login"]
	if !ok || login == "" {
		return nil, domain.ErrMissingArgument.WithDetails("login is required")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	user, ok := p.byLogin[login]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// ValidateCredentials verifies the "password" credential.
func (p *MemoryUserProvider) ValidateCredentials(ctx context.Context, user User, credentials map[string]string) bool {
	memUser, ok := user.(*MemoryUser)
	if !ok {
		return false
	}
	return VerifyPassword(credentials["password"], memUser.PasswordHash)
}

var _ UserProvider = (*MemoryUserProvider)(nil)
