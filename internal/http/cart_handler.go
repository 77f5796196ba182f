package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/reconcile"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartOpener interface {
	Open(ctx context.Context, cartID string) (*cart.Store, error)
}

type ProductLookup interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

type StockReconciler interface {
	Refresh(ctx context.Context, cartID string, lines []domain.CartLine) reconcile.Result
	Forget(cartID string)
}

type CartHandler struct {
	carts      CartOpener
	products   ProductLookup
	reconciler StockReconciler
	log        *zap.Logger
	timeout    time.Duration
}

func NewCartHandler(carts CartOpener, products ProductLookup, reconciler StockReconciler, log *zap.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:      carts,
		products:   products,
		reconciler: reconciler,
		log:        log,
		timeout:    timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID  string `json:"product_id" validate:"required"`
	Color      string `json:"color"`
	Dimensions string `json:"dimensions"`
	Quantity   int    `json:"quantity" validate:"omitempty,min=1,max=99"`
}

// UpdateQuantityRequestDTO carries either an absolute quantity or a delta.
type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity" validate:"required_without=Delta,excluded_with=Delta"`
	Delta    *int `json:"delta" validate:"required_without=Quantity"`
}

type CartLineDTO struct {
	Key             domain.CartKey          `json:"cart_key"`
	ProductID       string                  `json:"product_id"`
	Variant         *domain.VariantSelector `json:"variant,omitempty"`
	Name            string                  `json:"name"`
	UnitPrice       decimal.Decimal         `json:"unit_price"`
	OriginalPrice   decimal.Decimal         `json:"original_price"`
	DiscountPercent int                     `json:"discount_percent"`
	ImageURL        string                  `json:"image_url"`
	Quantity        int                     `json:"quantity"`
	LineTotal       decimal.Decimal         `json:"line_total"`
	MaxQuantity     int                     `json:"max_quantity"`
	Warnings        []domain.Warning        `json:"warnings,omitempty"`
}

type CartResponseDTO struct {
	CartID string        `json:"cart_id"`
	Lines  []CartLineDTO `json:"lines"`
	Totals domain.Totals `json:"totals"`
	Count  int           `json:"count"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := h.carts.Open(ctx, cartIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx, store))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	store, err := h.carts.Open(ctx, cartIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	var sel *domain.VariantSelector
	if req.Color != "" || req.Dimensions != "" {
		sel = &domain.VariantSelector{Color: req.Color, Dimensions: req.Dimensions}
	}
	added, err := store.Add(ctx, product, sel, req.Quantity)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if !added {
		respondError(w, http.StatusUnprocessableEntity, "variant_unavailable", "the selected variant is not available")
		return
	}
	respondJSON(w, http.StatusCreated, h.view(ctx, store))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key, ok := cartKeyParam(w, r)
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	store, err := h.carts.Open(ctx, cartIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	bounds := h.reconciler.Refresh(ctx, store.ID(), store.Lines())

	if req.Quantity != nil {
		_, err = store.UpdateQuantity(ctx, key, *req.Quantity, bounds)
	} else {
		_, err = store.AdjustQuantity(ctx, key, *req.Delta, bounds)
	}
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx, store))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key, ok := cartKeyParam(w, r)
	if !ok {
		return
	}
	store, err := h.carts.Open(ctx, cartIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := store.Remove(ctx, key); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx, store))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := h.carts.Open(ctx, cartIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := store.Clear(ctx); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.reconciler.Forget(store.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) view(ctx context.Context, store *cart.Store) CartResponseDTO {
	lines := store.Lines()
	result := h.reconciler.Refresh(ctx, store.ID(), lines)

	dtos := make([]CartLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, CartLineDTO{
			Key:             l.Key(),
			ProductID:       l.ProductID,
			Variant:         l.Variant,
			Name:            l.Name,
			UnitPrice:       l.UnitPrice,
			OriginalPrice:   l.OriginalPrice,
			DiscountPercent: l.DiscountPercent,
			ImageURL:        l.ImageURL,
			Quantity:        l.Quantity,
			LineTotal:       l.LineTotal(),
			MaxQuantity:     cart.BoundFor(result, l),
			Warnings:        result.WarningsFor(l.Key()),
		})
	}

	totals := domain.ComputeTotals(lines)
	return CartResponseDTO{
		CartID: store.ID(),
		Lines:  dtos,
		Totals: totals,
		Count:  totals.ItemCount,
	}
}

func cartKeyParam(w http.ResponseWriter, r *http.Request) (domain.CartKey, bool) {
	raw, err := url.PathUnescape(chi.URLParam(r, "cart_key"))
	if err != nil || raw == "" {
		respondError(w, http.StatusBadRequest, "invalid_cart_key", "cart_key is invalid")
		return "", false
	}
	return domain.CartKey(raw), true
}
