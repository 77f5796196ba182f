package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ordersRequest(t *testing.T, svc *mockOrders, accounts *mockAccounts, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(Deps{Orders: svc, Accounts: accounts, Log: zap.NewNop(), Timeout: time.Second})

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListOrders_Success(t *testing.T) {
	svc := &mockOrders{views: []orders.View{
		{Order: domain.Order{ID: "o1", Status: domain.OrderStatusProcessing}, Cancellable: true},
		{Order: domain.Order{ID: "o2", Status: domain.OrderStatusDelivered}},
	}}
	accounts := &mockAccounts{profile: domain.Profile{ID: "u1"}}

	rec := ordersRequest(t, svc, accounts, http.MethodGet, "/api/v1/orders", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "u1", svc.lastUserID)
	assert.Equal(t, []string{"tok"}, accounts.tokens)

	var resp struct {
		Orders []struct {
			ID          string `json:"id"`
			Cancellable bool   `json:"cancellable"`
		} `json:"orders"`
		Reasons []string `json:"cancel_reasons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 2)
	assert.True(t, resp.Orders[0].Cancellable)
	assert.False(t, resp.Orders[1].Cancellable)
	assert.Equal(t, orders.Reasons, resp.Reasons)
}

func TestListOrders_ProfileUnauthorized(t *testing.T) {
	svc := &mockOrders{}
	accounts := &mockAccounts{meErr: &backend.APIError{Status: http.StatusUnauthorized, Message: "jwt expired"}}

	rec := ordersRequest(t, svc, accounts, http.MethodGet, "/api/v1/orders", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/login", resp.Redirect)
}

func TestRequestCancelOTP_Success(t *testing.T) {
	svc := &mockOrders{orders: map[string]domain.Order{"o1": {ID: "o1"}}}
	accounts := &mockAccounts{profile: domain.Profile{ID: "u1"}}

	rec := ordersRequest(t, svc, accounts, http.MethodPost, "/api/v1/orders/o1/cancel-otp", nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"o1"}, svc.otpFor)
	assert.JSONEq(t, `{"order_id":"o1","state":"OtpRequested"}`, rec.Body.String())
}

func TestRequestCancelOTP_Errors(t *testing.T) {
	accounts := &mockAccounts{profile: domain.Profile{ID: "u1"}}

	rec := ordersRequest(t, &mockOrders{}, accounts, http.MethodPost, "/api/v1/orders/missing/cancel-otp", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc := &mockOrders{orders: map[string]domain.Order{"o1": {ID: "o1"}}, otpErr: orders.ErrNotCancellable}
	rec = ordersRequest(t, svc, accounts, http.MethodPost, "/api/v1/orders/o1/cancel-otp", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelOrder_Success(t *testing.T) {
	svc := &mockOrders{orders: map[string]domain.Order{"o1": {ID: "o1", Status: domain.OrderStatusProcessing}}}
	accounts := &mockAccounts{profile: domain.Profile{ID: "u1"}}

	rec := ordersRequest(t, svc, accounts, http.MethodPost, "/api/v1/orders/o1/cancel",
		CancelOrderRequestDTO{Reason: "Order mistake", OTP: "123456"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, orders.CancelRequest{Reason: "Order mistake", OTP: "123456"}, svc.cancelReq)

	var view orders.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, domain.OrderStatusCancelled, view.Status)
	assert.Equal(t, "Order mistake", view.CancelReason)
	assert.False(t, view.Cancellable)
}

func TestCancelOrder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing reason", orders.ErrReasonRequired, http.StatusUnprocessableEntity, "invalid_reason"},
		{"other without details", orders.ErrReasonDetailsRequired, http.StatusUnprocessableEntity, "invalid_reason"},
		{"bad otp", orders.ErrOTPInvalid, http.StatusUnprocessableEntity, "invalid_otp"},
		{"no otp requested", orders.ErrOTPNotRequested, http.StatusConflict, "otp_not_requested"},
		{"backend rejects code", &backend.APIError{Status: http.StatusBadRequest, Message: "Invalid OTP"}, http.StatusBadRequest, "backend_rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrders{orders: map[string]domain.Order{"o1": {ID: "o1"}}, cancelErr: tt.err}
			accounts := &mockAccounts{profile: domain.Profile{ID: "u1"}}

			rec := ordersRequest(t, svc, accounts, http.MethodPost, "/api/v1/orders/o1/cancel",
				CancelOrderRequestDTO{Reason: "Other", OTP: "12"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
