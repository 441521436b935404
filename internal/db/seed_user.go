package db

import (
	"context"
	"errors"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

type SeedStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// EnsureSeedUser creates the configured bootstrap account once. It is a no-op
// when no seed credentials are configured or the user already exists.
func EnsureSeedUser(ctx context.Context, store SeedStore, hasher PasswordHasher, cfg config.Config) error {
	if cfg.SeedUsername == "" || cfg.SeedPassword == "" {
		return nil
	}

	_, err := store.GetByUsername(ctx, cfg.SeedUsername)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.SeedPassword)

	if err != nil {
		return err
	}

	email := cfg.SeedEmail
	if email == "" {
		email = cfg.SeedUsername + "@localhost"
	}

	_, err = store.Create(ctx, cfg.SeedUsername, email, hash)

	return err
}
