package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Version counts the writes a cart entry has seen. A fill only lands when
// the version is still the one observed on the miss that triggered it.
type Version int64

type CartCache interface {
	// Get returns ErrCacheMiss together with the current version when no
	// cart is cached.
	Get(ctx context.Context, cartID string) (*domain.Cart, Version, error)
	// Fill caches a cart read from the repository after a miss.
	Fill(ctx context.Context, cart *domain.Cart, seen Version) (bool, error)
	// Set writes a cart through and bumps its version.
	Set(ctx context.Context, cart *domain.Cart) error
	// Delete drops the cached cart and bumps its version.
	Delete(ctx context.Context, cartID string) error
}

var ErrCacheMiss = errors.New("cache miss")
