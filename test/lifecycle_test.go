// Package integration exercises the full session lifecycle through the
// public API over a real (in-process) Redis.
package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	tokenward "github.com/tokenward/tokenward"
	"github.com/tokenward/tokenward/password"
)

type singleUserDirectory struct {
	user tokenward.User
}

func (d singleUserDirectory) FindByUsername(_ context.Context, username string) (tokenward.User, error) {
	if username != d.user.Username {
		return tokenward.User{}, tokenward.ErrUserNotFound
	}
	return d.user, nil
}

func (d singleUserDirectory) FindByID(_ context.Context, id string) (tokenward.User, error) {
	if id != d.user.ID {
		return tokenward.User{}, tokenward.ErrUserNotFound
	}
	return d.user, nil
}

func TestSessionLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := tokenward.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	hash, err := hasher.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	engine, err := tokenward.New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(singleUserDirectory{user: tokenward.User{
			ID:           "u-1",
			Username:     "alice",
			PasswordHash: hash,
			Roles:        "admin",
			Active:       true,
		}}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := context.Background()

	// Login and use the access token.
	first, err := engine.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := engine.Validate(ctx, first.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "u-1" || !claims.HasAdminRole() {
		t.Fatalf("claims = %+v", claims)
	}

	// Rotate. The old pair dies the moment the new one exists.
	second, err := engine.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := engine.Validate(ctx, first.AccessToken); !errors.Is(err, tokenward.ErrWrongCredentials) {
		t.Fatalf("old access after rotation: err = %v, want ErrWrongCredentials", err)
	}
	if _, err := engine.Refresh(ctx, first.RefreshToken); !errors.Is(err, tokenward.ErrWrongCredentials) {
		t.Fatalf("old refresh after rotation: err = %v, want ErrWrongCredentials", err)
	}
	if _, err := engine.Validate(ctx, second.AccessToken); err != nil {
		t.Fatalf("rotated access: %v", err)
	}

	// Logout ends the session; both rotated tokens are dead.
	if err := engine.Logout(ctx, second.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := engine.Validate(ctx, second.AccessToken); !errors.Is(err, tokenward.ErrWrongCredentials) {
		t.Fatalf("access after logout: err = %v, want ErrWrongCredentials", err)
	}
	if _, err := engine.ValidateRefresh(ctx, second.RefreshToken); !errors.Is(err, tokenward.ErrWrongCredentials) {
		t.Fatalf("refresh after logout: err = %v, want ErrWrongCredentials", err)
	}

	// Cleanup sweeps whatever the session left behind once it expires.
	// Nothing has expired yet, so the sweep removes nothing.
	removed, err := engine.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}
