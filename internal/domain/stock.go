package domain

import "github.com/shopspring/decimal"

// LiveStockEntry is the authoritative price and stock of one product color.
// It is fetched per reconciliation pass and never persisted.
type LiveStockEntry struct {
	ProductID string          `json:"product_id"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

type WarningKind string

const (
	WarningPriceChanged WarningKind = "price_changed"
	WarningLowStock     WarningKind = "low_stock"
	WarningUrgentStock  WarningKind = "urgent_stock"
)

type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}
