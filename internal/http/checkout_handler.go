package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

type CheckoutRunner interface {
	Run(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

// CheckoutHandler runs on the request context without the per-request timeout.
type CheckoutHandler struct {
	orchestrator CheckoutRunner
	log          *zap.Logger
}

func NewCheckoutHandler(orchestrator CheckoutRunner, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator, log: log}
}

type CheckoutRequestDTO struct {
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=card cod"`
	PaymentMethodID string `json:"payment_method_id" validate:"required_if=PaymentMethod card"`
	CouponCode      string `json:"coupon_code" validate:"max=64"`
}

type CheckoutResponseDTO struct {
	AttemptID  string       `json:"attempt_id"`
	PaymentRef string       `json:"payment_ref"`
	Order      domain.Order `json:"order"`
	Redirect   string       `json:"redirect"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	res, err := h.orchestrator.Run(r.Context(), checkout.Request{
		CartID:          cartIDFromContext(r.Context()),
		Token:           auth.TokenFromContext(r.Context()),
		Method:          domain.PaymentMethod(req.PaymentMethod),
		PaymentMethodID: req.PaymentMethodID,
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		AttemptID:  res.AttemptID,
		PaymentRef: res.PaymentRef,
		Order:      res.Order,
		Redirect:   "/orders",
	})
}
