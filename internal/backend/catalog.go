package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// StockQuery names one product color to price-check.
type StockQuery struct {
	ProductID string
	Color     string
}

// CheckCart fetches live price and stock for every query in one request.
func (c *Client) CheckCart(ctx context.Context, queries []StockQuery) ([]domain.LiveStockEntry, error) {
	req := checkCartRequest{Items: make([]checkCartItem, 0, len(queries))}
	for _, q := range queries {
		req.Items = append(req.Items, checkCartItem{ID: q.ProductID, Color: q.Color})
	}

	var resp []stockEntryWire
	if err := c.do(ctx, http.MethodPost, "products/check-cart", "", req, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.LiveStockEntry, 0, len(resp))
	for _, w := range resp {
		e, err := w.normalize()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	var resp productWire
	if err := c.do(ctx, http.MethodGet, "products/"+url.PathEscape(strings.TrimSpace(productID)), "", nil, &resp); err != nil {
		return domain.Product{}, err
	}
	return resp.normalize()
}
