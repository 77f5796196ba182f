package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func postCheckout(t *testing.T, runner *mockCheckout, token, cartID string, body any) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	router := NewRouter(Deps{Checkout: runner, Log: zap.NewNop(), Timeout: time.Second})

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", &buf)
	req.Header.Set(cartHeader, cartID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var errResp ErrorResponse
	if rec.Code >= 400 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	}
	return rec, errResp
}

func TestCheckout_Success(t *testing.T) {
	cartID := uuid.NewString()
	runner := &mockCheckout{result: &checkout.Result{
		AttemptID:  "att-1",
		PaymentRef: "pi_123",
		Order:      domain.Order{ID: "o1", Status: domain.OrderStatusProcessing},
	}}

	rec, _ := postCheckout(t, runner, "tok", cartID, CheckoutRequestDTO{PaymentMethod: "card", PaymentMethodID: "pm_card", CouponCode: "SAVE10"})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, checkout.Request{
		CartID:          cartID,
		Token:           "tok",
		Method:          domain.PaymentMethodCard,
		PaymentMethodID: "pm_card",
		CouponCode:      "SAVE10",
	}, runner.req)

	var resp CheckoutResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/orders", resp.Redirect)
	assert.Equal(t, "pi_123", resp.PaymentRef)
	assert.Equal(t, "o1", resp.Order.ID)
}

func TestCheckout_CashOnDeliveryNeedsNoPaymentMethod(t *testing.T) {
	runner := &mockCheckout{result: &checkout.Result{PaymentRef: "COD-1"}}

	rec, _ := postCheckout(t, runner, "tok", uuid.NewString(), CheckoutRequestDTO{PaymentMethod: "cod"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.PaymentMethodCOD, runner.req.Method)
}

func TestCheckout_RequiresLogin(t *testing.T) {
	runner := &mockCheckout{}

	rec, resp := postCheckout(t, runner, "", uuid.NewString(), CheckoutRequestDTO{PaymentMethod: "cod"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", resp.Redirect)
	assert.Zero(t, runner.calls)
}

func TestCheckout_ExpiredToken(t *testing.T) {
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	runner := &mockCheckout{}

	rec, resp := postCheckout(t, runner, token, uuid.NewString(), CheckoutRequestDTO{PaymentMethod: "cod"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.ErrTokenExpired.Error(), resp.Error)
	assert.Zero(t, runner.calls)
}

func TestCheckout_ValidatesBody(t *testing.T) {
	runner := &mockCheckout{}

	rec, resp := postCheckout(t, runner, "tok", uuid.NewString(), CheckoutRequestDTO{PaymentMethod: "card"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "payment_method_id is required", resp.Error)

	rec, _ = postCheckout(t, runner, "tok", uuid.NewString(), CheckoutRequestDTO{PaymentMethod: "paypal"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, runner.calls)
}

func TestCheckout_Failures(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantCode     string
		wantRedirect string
		wantDetails  string
	}{
		{
			name:         "profile incomplete",
			err:          &checkout.ProfileIncompleteError{Missing: []string{"street", "zipCode"}},
			wantStatus:   http.StatusUnprocessableEntity,
			wantCode:     "profile_incomplete",
			wantRedirect: "/profile",
			wantDetails:  "street,zipCode",
		},
		{
			name:       "payment declined",
			err:        &payment.ProviderError{Message: "Your card was declined."},
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "payment_failed",
		},
		{
			name:        "order rejected after payment",
			err:         &checkout.OrderSubmissionError{PaymentRef: "pi_9", Err: &backend.APIError{Status: 500, Message: "db down"}},
			wantStatus:  http.StatusBadGateway,
			wantCode:    "order_failed",
			wantDetails: "pi_9",
		},
		{
			name:       "empty cart",
			err:        checkout.ErrEmptyCart,
			wantStatus: http.StatusConflict,
			wantCode:   "empty_cart",
		},
		{
			name:       "already running",
			err:        checkout.ErrCheckoutInProgress,
			wantStatus: http.StatusConflict,
			wantCode:   "checkout_in_progress",
		},
		{
			name:         "backend rejects token",
			err:          backend.ErrUnauthorized,
			wantStatus:   http.StatusUnauthorized,
			wantCode:     "unauthorized",
			wantRedirect: "/login",
		},
		{
			name:       "backend down",
			err:        errors.Join(errors.New("create payment"), backend.ErrUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "service_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockCheckout{err: tt.err}

			rec, resp := postCheckout(t, runner, "tok", uuid.NewString(), CheckoutRequestDTO{PaymentMethod: "card", PaymentMethodID: "pm"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantRedirect, resp.Redirect)
			assert.Equal(t, tt.wantDetails, resp.Details)
		})
	}
}

func TestCheckout_OrderFailureMessage(t *testing.T) {
	runner := &mockCheckout{err: &checkout.OrderSubmissionError{PaymentRef: "pi_9", Err: &backend.APIError{Status: 400, Message: "Coupon expired"}}}

	_, resp := postCheckout(t, runner, "tok", uuid.NewString(), CheckoutRequestDTO{PaymentMethod: "card", PaymentMethodID: "pm"})

	assert.Equal(t, "Order placement failed. Coupon expired", resp.Error)
}
