package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"go.uber.org/zap"
)

// handleError maps domain and backend errors onto the JSON error envelope.
func handleError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	resp, status := classify(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context(), log).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	respondJSON(w, status, resp)
}

func classify(err error) (ErrorResponse, int) {
	var (
		badReq     *errBadRequest
		banned     *backend.BannedError
		incomplete *checkout.ProfileIncompleteError
		submit     *checkout.OrderSubmissionError
		provider   *payment.ProviderError
		apiErr     *backend.APIError
	)

	switch {
	case errors.As(err, &badReq):
		return ErrorResponse{Error: badReq.msg, Code: "invalid_request"}, http.StatusBadRequest

	case errors.As(err, &banned):
		return ErrorResponse{Error: "Your account has been banned.", Code: "banned", Details: banned.Reason, Redirect: "/banned"}, http.StatusForbidden

	case errors.As(err, &incomplete):
		return ErrorResponse{
			Error:    "Please complete your profile before placing an order.",
			Code:     "profile_incomplete",
			Details:  strings.Join(incomplete.Missing, ","),
			Redirect: "/profile",
		}, http.StatusUnprocessableEntity

	case errors.As(err, &submit):
		return ErrorResponse{Error: submit.Error(), Code: "order_failed", Details: submit.PaymentRef}, http.StatusBadGateway

	case errors.As(err, &provider):
		return ErrorResponse{Error: provider.Message, Code: "payment_failed"}, http.StatusPaymentRequired

	case errors.Is(err, auth.ErrNoToken), errors.Is(err, auth.ErrTokenExpired), errors.Is(err, backend.ErrUnauthorized):
		msg := "Please log in first."
		if errors.Is(err, auth.ErrTokenExpired) {
			msg = auth.ErrTokenExpired.Error()
		}
		return ErrorResponse{Error: msg, Code: "unauthorized", Redirect: "/login"}, http.StatusUnauthorized

	case errors.Is(err, checkout.ErrEmptyCart):
		return ErrorResponse{Error: err.Error(), Code: "empty_cart"}, http.StatusConflict
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		return ErrorResponse{Error: err.Error(), Code: "checkout_in_progress"}, http.StatusConflict
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return ErrorResponse{Error: err.Error(), Code: "invalid_payment_method"}, http.StatusBadRequest

	case errors.Is(err, cart.ErrInsufficientStock):
		return ErrorResponse{Error: err.Error(), Code: "insufficient_stock"}, http.StatusConflict
	case errors.Is(err, cart.ErrInvalidQuantity):
		return ErrorResponse{Error: err.Error(), Code: "invalid_quantity"}, http.StatusBadRequest
	case errors.Is(err, cart.ErrLineNotFound):
		return ErrorResponse{Error: err.Error(), Code: "line_not_found"}, http.StatusNotFound

	case errors.Is(err, orders.ErrOrderNotFound):
		return ErrorResponse{Error: err.Error(), Code: "order_not_found"}, http.StatusNotFound
	case errors.Is(err, orders.ErrNotCancellable):
		return ErrorResponse{Error: err.Error(), Code: "not_cancellable"}, http.StatusConflict
	case errors.Is(err, orders.ErrOTPNotRequested):
		return ErrorResponse{Error: err.Error(), Code: "otp_not_requested"}, http.StatusConflict
	case errors.Is(err, orders.ErrReasonRequired), errors.Is(err, orders.ErrUnknownReason),
		errors.Is(err, orders.ErrReasonDetailsRequired):
		return ErrorResponse{Error: err.Error(), Code: "invalid_reason"}, http.StatusUnprocessableEntity
	case errors.Is(err, orders.ErrOTPRequired), errors.Is(err, orders.ErrOTPInvalid):
		return ErrorResponse{Error: err.Error(), Code: "invalid_otp"}, http.StatusUnprocessableEntity

	case errors.Is(err, backend.ErrNotFound):
		return ErrorResponse{Error: backend.Message(err), Code: "not_found"}, http.StatusNotFound
	case errors.Is(err, backend.ErrUnavailable):
		return ErrorResponse{Error: "The store is temporarily unavailable. Please try again.", Code: "service_unavailable"}, http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		if apiErr.Status >= http.StatusInternalServerError {
			return ErrorResponse{Error: apiErr.Message, Code: "backend_error"}, http.StatusBadGateway
		}
		return ErrorResponse{Error: apiErr.Message, Code: "backend_rejected"}, apiErr.Status
	case errors.Is(err, backend.ErrMalformed):
		return ErrorResponse{Error: "unexpected response from the store backend", Code: "backend_error"}, http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse{Error: "request timed out", Code: "timeout"}, http.StatusGatewayTimeout
	default:
		return ErrorResponse{Error: "internal server error", Code: "internal_error"}, http.StatusInternalServerError
	}
}
