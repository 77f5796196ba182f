package repository

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CartRepository is the durable home of cart line lists, keyed by cart id.
type CartRepository interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, cartID string) error
}
