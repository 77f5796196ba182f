package cart

import "github.com/fjod/go_cart/storefront/internal/domain"

// DefaultMaxStock bounds quantities for lines with no live stock entry yet.
const DefaultMaxStock = 10

// StockBounds exposes the most recent live stock per cart line.
type StockBounds interface {
	MaxStock(line domain.CartLine) (int, bool)
}

func Clamp(requested, maxStock int) int {
	return max(1, min(requested, maxStock))
}

func BoundFor(bounds StockBounds, line domain.CartLine) int {
	if bounds == nil {
		return DefaultMaxStock
	}
	if stock, ok := bounds.MaxStock(line); ok {
		return stock
	}
	return DefaultMaxStock
}
