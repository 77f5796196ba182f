package repository

import (
	"context"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (CartRepository, func()) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	require.NoError(t, CreateIndexes(ctx, db))

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return NewMongoRepository(db), cleanup
}

func TestGetCart_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	cart, err := repo.GetCart(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestUpsertCart_RoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cart := &domain.Cart{
		ID: "cart-1",
		Lines: []domain.CartLine{
			{ProductID: "p1", Variant: &domain.VariantSelector{Color: "red", Dimensions: "S"}, Name: "Lamp", UnitPrice: decimal.RequireFromString("10.50"), Quantity: 2},
			{ProductID: "p2", Name: "Mug", UnitPrice: decimal.RequireFromString("3"), Quantity: 1},
		},
	}
	require.NoError(t, repo.UpsertCart(ctx, cart))

	got, err := repo.GetCart(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "red", got.Lines[0].Color())
	assert.Equal(t, "S", got.Lines[0].Variant.Dimensions)
	assert.True(t, decimal.RequireFromString("10.5").Equal(got.Lines[0].UnitPrice))
	assert.Nil(t, got.Lines[1].Variant)
}

func TestUpsertCart_ReplacesLines(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.UpsertCart(ctx, &domain.Cart{ID: "cart-2", Lines: []domain.CartLine{{ProductID: "p1", UnitPrice: decimal.NewFromInt(1), Quantity: 1}}}))
	require.NoError(t, repo.UpsertCart(ctx, &domain.Cart{ID: "cart-2", Lines: []domain.CartLine{{ProductID: "p9", UnitPrice: decimal.NewFromInt(2), Quantity: 4}}}))

	got, err := repo.GetCart(ctx, "cart-2")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "p9", got.Lines[0].ProductID)
	assert.Equal(t, 4, got.Lines[0].Quantity)
}

func TestDeleteCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.UpsertCart(ctx, &domain.Cart{ID: "cart-3"}))
	require.NoError(t, repo.DeleteCart(ctx, "cart-3"))
	assert.ErrorIs(t, repo.DeleteCart(ctx, "cart-3"), ErrCartNotFound)
}
