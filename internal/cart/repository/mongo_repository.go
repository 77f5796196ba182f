package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrCartNotFound = errors.New("cart not found")

const cartsCollection = "carts"

// cartDocument stores prices as decimal strings.
type cartDocument struct {
	CartID    string         `bson:"cart_id"`
	Lines     []lineDocument `bson:"lines"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type lineDocument struct {
	ProductID       string `bson:"product_id"`
	Color           string `bson:"color,omitempty"`
	Dimensions      string `bson:"dimensions,omitempty"`
	HasVariant      bool   `bson:"has_variant"`
	Name            string `bson:"name"`
	UnitPrice       string `bson:"unit_price"`
	OriginalPrice   string `bson:"original_price"`
	DiscountPercent int    `bson:"discount_percent"`
	ImageURL        string `bson:"image_url"`
	Quantity        int    `bson:"quantity"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{collection: db.Collection(cartsCollection)}
}

func (m *mongoRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"cart_id": cartID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return fromDocument(doc)
}

func (m *mongoRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	cart.UpdatedAt = now

	filter := bson.M{"cart_id": cart.ID}
	update := bson.M{
		"$set": bson.M{
			"lines":      toLineDocuments(cart.Lines),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, cartID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"cart_id": cartID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cart_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// CreateIndexes prepares the carts collection of db.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	return (&mongoRepository{collection: db.Collection(cartsCollection)}).CreateIndexes(ctx)
}

func toLineDocuments(lines []domain.CartLine) []lineDocument {
	docs := make([]lineDocument, 0, len(lines))
	for _, l := range lines {
		d := lineDocument{
			ProductID:       l.ProductID,
			Name:            l.Name,
			UnitPrice:       l.UnitPrice.String(),
			OriginalPrice:   l.OriginalPrice.String(),
			DiscountPercent: l.DiscountPercent,
			ImageURL:        l.ImageURL,
			Quantity:        l.Quantity,
		}
		if l.Variant != nil {
			d.HasVariant = true
			d.Color = l.Variant.Color
			d.Dimensions = l.Variant.Dimensions
		}
		docs = append(docs, d)
	}
	return docs
}

func fromDocument(doc cartDocument) (*domain.Cart, error) {
	cart := &domain.Cart{ID: doc.CartID, UpdatedAt: doc.UpdatedAt}
	for _, d := range doc.Lines {
		price, err := decimal.NewFromString(d.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("bad unit price for %s: %w", d.ProductID, err)
		}
		original, err := decimal.NewFromString(d.OriginalPrice)
		if err != nil {
			original = price
		}
		line := domain.CartLine{
			ProductID:       d.ProductID,
			Name:            d.Name,
			UnitPrice:       price,
			OriginalPrice:   original,
			DiscountPercent: d.DiscountPercent,
			ImageURL:        d.ImageURL,
			Quantity:        d.Quantity,
		}
		if d.HasVariant {
			line.Variant = &domain.VariantSelector{Color: d.Color, Dimensions: d.Dimensions}
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}
