package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/digitsoft/authtoken-go/internal/core/domain"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("hash = %q, want argon2id format", hash)
	}

	if !VerifyPassword("hunter2", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("hunter3", hash) {
		t.Error("wrong password accepted")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	malformed := []string{
		"",
		"plain",
		"$argon2i$v=19$m=16384,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=16384,t=2,p=2$!!!$aGFzaA",
		"$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$!!!",
	}
	for _, hash := range malformed {
		if VerifyPassword("pw", hash) {
			t.Errorf("VerifyPassword accepted malformed hash %q", hash)
		}
	}
}

func TestMemoryUserProvider(t *testing.T) {
	provider := NewMemoryUserProvider()
	if err := provider.AddWithPassword(1, "alice", "pw-alice"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	t.Run("RetrieveByID", func(t *testing.T) {
		user, err := provider.RetrieveByID(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if user.AuthID() != 1 {
			t.Errorf("AuthID() = %d, want 1", user.AuthID())
		}
	})

	t.Run("RetrieveByID miss", func(t *testing.T) {
		_, err := provider.RetrieveByID(ctx, 99)
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("RetrieveByCredentials", func(t *testing.T) {
		user, err := provider.RetrieveByCredentials(ctx, map[string]string{"login": "alice"})
		if err != nil {
			t.Fatal(err)
		}
		if user.AuthID() != 1 {
			t.Errorf("AuthID() = %d, want 1", user.AuthID())
		}
	})

	t.Run("RetrieveByCredentials miss", func(t *testing.T) {
		_, err := provider.RetrieveByCredentials(ctx, map[string]string{"login": "bob"})
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("RetrieveByCredentials without login", func(t *testing.T) {
		if _, err := provider.RetrieveByCredentials(ctx, map[string]string{}); err == nil {
			t.Error("expected error for missing login")
		}
	})

	t.Run("ValidateCredentials", func(t *testing.T) {
		user, _ := provider.RetrieveByID(ctx, 1)

		if !provider.ValidateCredentials(ctx, user, map[string]string{"password": "pw-alice"}) {
			t.Error("correct password rejected")
		}
		if provider.ValidateCredentials(ctx, user, map[string]string{"password": "nope"}) {
			t.Error("wrong password accepted")
		}
	})
}
