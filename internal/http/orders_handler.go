package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProfileSource interface {
	Me(ctx context.Context, token string) (domain.Profile, error)
}

type OrderService interface {
	List(ctx context.Context, token, userID string) ([]orders.View, error)
	Find(ctx context.Context, token, userID, orderID string) (domain.Order, error)
	RequestOTP(ctx context.Context, token, userID string, order domain.Order) error
	ConfirmCancel(ctx context.Context, token, userID string, order *domain.Order, req orders.CancelRequest) error
}

type OrdersHandler struct {
	orders   OrderService
	profiles ProfileSource
	log      *zap.Logger
	timeout  time.Duration
}

func NewOrdersHandler(svc OrderService, profiles ProfileSource, log *zap.Logger, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: svc, profiles: profiles, log: log, timeout: timeout}
}

type CancelOrderRequestDTO struct {
	Reason  string `json:"reason"`
	Details string `json:"details" validate:"max=500"`
	OTP     string `json:"otp" validate:"max=32"`
}

type OrdersResponseDTO struct {
	Orders  []orders.View `json:"orders"`
	Reasons []string      `json:"cancel_reasons"`
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, userID, err := h.identify(ctx)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	views, err := h.orders.List(ctx, token, userID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, OrdersResponseDTO{Orders: views, Reasons: orders.Reasons})
}

func (h *OrdersHandler) RequestCancelOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, userID, order, err := h.order(ctx, r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := h.orders.RequestOTP(ctx, token, userID, order); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"order_id": order.ID,
		"state":    orders.StateOTPRequested,
	})
}

func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CancelOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	token, userID, order, err := h.order(ctx, r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	err = h.orders.ConfirmCancel(ctx, token, userID, &order, orders.CancelRequest{
		Reason:  req.Reason,
		Details: req.Details,
		OTP:     req.OTP,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, orders.View{Order: order, Cancellable: false})
}

func (h *OrdersHandler) identify(ctx context.Context) (string, string, error) {
	token := auth.TokenFromContext(ctx)
	profile, err := h.profiles.Me(ctx, token)
	if err != nil {
		return "", "", err
	}
	return token, profile.ID, nil
}

func (h *OrdersHandler) order(ctx context.Context, r *http.Request) (string, string, domain.Order, error) {
	token, userID, err := h.identify(ctx)
	if err != nil {
		return "", "", domain.Order{}, err
	}
	order, err := h.orders.Find(ctx, token, userID, chi.URLParam(r, "order_id"))
	if err != nil {
		return "", "", domain.Order{}, err
	}
	return token, userID, order, nil
}
