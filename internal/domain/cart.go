package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryFee is charged below FreeDeliveryThreshold.
var (
	DeliveryFee           = decimal.NewFromInt(5)
	FreeDeliveryThreshold = decimal.NewFromInt(35)
)

type VariantSelector struct {
	Color      string `json:"color"`
	Dimensions string `json:"dimensions,omitempty"`
}

// CartKey identifies a line within a cart: product id, color and dimensions.
type CartKey string

func NewCartKey(productID string, v *VariantSelector) CartKey {
	if v == nil {
		return CartKey(productID + "::")
	}
	return CartKey(productID + ":" + v.Color + ":" + v.Dimensions)
}

type CartLine struct {
	ProductID       string           `json:"product_id"`
	Variant         *VariantSelector `json:"variant,omitempty"`
	Name            string           `json:"name"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	OriginalPrice   decimal.Decimal  `json:"original_price"`
	DiscountPercent int              `json:"discount_percent"`
	ImageURL        string           `json:"image_url"`
	Quantity        int              `json:"quantity"`
}

func (l CartLine) Key() CartKey {
	return NewCartKey(l.ProductID, l.Variant)
}

func (l CartLine) Color() string {
	if l.Variant == nil {
		return ""
	}
	return l.Variant.Color
}

// Matches reports whether a live stock entry describes this line.
// Colors compare case-insensitively; dimensions are not part of the stock lookup.
func (l CartLine) Matches(e LiveStockEntry) bool {
	return l.ProductID == e.ProductID && strings.EqualFold(l.Color(), e.Color)
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	ID        string     `json:"id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Delivery  decimal.Decimal `json:"delivery"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// ComputeTotals uses the cached unit prices of the lines.
func ComputeTotals(lines []CartLine) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
		count += l.Quantity
	}

	delivery := DeliveryFee
	if subtotal.GreaterThanOrEqual(FreeDeliveryThreshold) {
		delivery = decimal.Zero
	}

	return Totals{
		Subtotal:  subtotal,
		Delivery:  delivery,
		Total:     subtotal.Add(delivery),
		ItemCount: count,
	}
}

// FormatEuro renders an amount as shown to shoppers, e.g. "€12.00".
func FormatEuro(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

// CartChange announces that a cart was rewritten by Origin.
type CartChange struct {
	CartID string `json:"cart_id"`
	Origin string `json:"origin"`
}
