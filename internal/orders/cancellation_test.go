package orders

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type cancelCall struct {
	OrderID, Reason, OTP string
}

type mockBackend struct {
	Orders    []domain.Order
	OrdersErr error
	OTPErr    error
	CancelErr error

	OTPCalls    []string
	CancelCalls []cancelCall
}

func (m *mockBackend) MyOrders(context.Context, string, string) ([]domain.Order, error) {
	return m.Orders, m.OrdersErr
}

func (m *mockBackend) SendCancelOTP(_ context.Context, _ string, orderID string) error {
	m.OTPCalls = append(m.OTPCalls, orderID)
	return m.OTPErr
}

func (m *mockBackend) CancelOrder(_ context.Context, _ string, orderID, reason, otp string) error {
	m.CancelCalls = append(m.CancelCalls, cancelCall{orderID, reason, otp})
	return m.CancelErr
}

var placedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func processing() domain.Order {
	return domain.Order{ID: "o1", Status: domain.OrderStatusProcessing, CreatedAt: placedAt}
}

func newService(t *testing.T, be *mockBackend, now time.Time) *Service {
	s := NewService(be, NewMemorySessions(), zaptest.NewLogger(t))
	s.now = func() time.Time { return now }
	s.sessions.(*MemorySessions).now = s.now
	return s
}

func TestCancellable_Boundary(t *testing.T) {
	o := processing()

	assert.True(t, Cancellable(o, placedAt))
	assert.True(t, Cancellable(o, placedAt.Add(2*time.Hour-time.Nanosecond)))
	assert.False(t, Cancellable(o, placedAt.Add(2*time.Hour)))
	assert.False(t, Cancellable(o, placedAt.Add(3*time.Hour)))

	for _, st := range []domain.OrderStatus{domain.OrderStatusPacked, domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		o.Status = st
		assert.False(t, Cancellable(o, placedAt.Add(time.Minute)), st)
	}
}

func TestList_AnnotatesCancellability(t *testing.T) {
	be := &mockBackend{Orders: []domain.Order{
		processing(),
		{ID: "o2", Status: domain.OrderStatusPacked, CreatedAt: placedAt},
	}}
	s := newService(t, be, placedAt.Add(time.Hour))

	views, err := s.List(context.Background(), "tok", "u1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Cancellable)
	assert.False(t, views[1].Cancellable)
}

func TestFind(t *testing.T) {
	be := &mockBackend{Orders: []domain.Order{processing()}}
	s := newService(t, be, placedAt)

	o, err := s.Find(context.Background(), "tok", "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)

	_, err = s.Find(context.Background(), "tok", "u1", "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRequestOTP_Ineligible(t *testing.T) {
	be := &mockBackend{}
	s := newService(t, be, placedAt.Add(2*time.Hour))

	err := s.RequestOTP(context.Background(), "tok", "u1", processing())
	assert.ErrorIs(t, err, ErrNotCancellable)
	assert.Empty(t, be.OTPCalls)
}

func TestRequestOTP_BackendFailureLeavesNoSession(t *testing.T) {
	be := &mockBackend{OTPErr: &backend.APIError{Status: 429, Message: "Too many requests"}}
	s := newService(t, be, placedAt.Add(time.Minute))
	order := processing()

	err := s.RequestOTP(context.Background(), "tok", "u1", order)
	assert.Equal(t, "Too many requests", backend.Message(err))

	err = s.ConfirmCancel(context.Background(), "tok", "u1", &order, CancelRequest{Reason: "Order mistake", OTP: "123456"})
	assert.ErrorIs(t, err, ErrOTPNotRequested)
	assert.Empty(t, be.CancelCalls)
}

func TestConfirmCancel_Success(t *testing.T) {
	be := &mockBackend{}
	s := newService(t, be, placedAt.Add(time.Minute))
	order := processing()
	ctx := context.Background()

	require.NoError(t, s.RequestOTP(ctx, "tok", "u1", order))
	require.NoError(t, s.ConfirmCancel(ctx, "tok", "u1", &order, CancelRequest{Reason: "Changed my mind", OTP: "123456"}))

	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	assert.Equal(t, "Changed my mind", order.CancelReason)
	assert.Equal(t, []cancelCall{{"o1", "Changed my mind", "123456"}}, be.CancelCalls)

	_, err := s.sessions.Get(ctx, "u1", "o1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestConfirmCancel_OtherSendsDetails(t *testing.T) {
	be := &mockBackend{}
	s := newService(t, be, placedAt.Add(time.Minute))
	order := processing()
	ctx := context.Background()

	require.NoError(t, s.RequestOTP(ctx, "tok", "u1", order))
	require.NoError(t, s.ConfirmCancel(ctx, "tok", "u1", &order, CancelRequest{Reason: "Other", Details: " Delivery too slow ", OTP: "42"}))

	assert.Equal(t, "Delivery too slow", order.CancelReason)
	assert.Equal(t, "Delivery too slow", be.CancelCalls[0].Reason)
}

func TestConfirmCancel_WrongOTPKeepsOrderAndSession(t *testing.T) {
	be := &mockBackend{CancelErr: &backend.APIError{Status: 400, Message: "Invalid OTP"}}
	s := newService(t, be, placedAt.Add(time.Minute))
	order := processing()
	ctx := context.Background()

	require.NoError(t, s.RequestOTP(ctx, "tok", "u1", order))
	err := s.ConfirmCancel(ctx, "tok", "u1", &order, CancelRequest{Reason: "Order mistake", OTP: "000000"})

	assert.Equal(t, "Invalid OTP", backend.Message(err))
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Empty(t, order.CancelReason)

	sess, err := s.sessions.Get(ctx, "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, StateOTPRequested, sess.State)
}

func TestConfirmCancel_ValidationSendsNoRequest(t *testing.T) {
	tests := []struct {
		name string
		req  CancelRequest
		want error
	}{
		{"no reason", CancelRequest{OTP: "1"}, ErrReasonRequired},
		{"unknown reason", CancelRequest{Reason: "Bored", OTP: "1"}, ErrUnknownReason},
		{"other without text", CancelRequest{Reason: "Other", Details: "  ", OTP: "123456"}, ErrReasonDetailsRequired},
		{"no otp", CancelRequest{Reason: "Order mistake"}, ErrOTPRequired},
		{"letters", CancelRequest{Reason: "Order mistake", OTP: "12a4"}, ErrOTPInvalid},
		{"too long", CancelRequest{Reason: "Order mistake", OTP: "1234567"}, ErrOTPInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &mockBackend{}
			s := newService(t, be, placedAt.Add(time.Minute))
			order := processing()
			require.NoError(t, s.RequestOTP(context.Background(), "tok", "u1", order))

			err := s.ConfirmCancel(context.Background(), "tok", "u1", &order, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, be.CancelCalls)
			assert.Equal(t, domain.OrderStatusProcessing, order.Status)
		})
	}
}

func TestMemorySessions_Expire(t *testing.T) {
	now := placedAt
	m := NewMemorySessions()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "u1", "o1", Session{State: StateOTPRequested, RequestedAt: now}))
	now = now.Add(SessionTTL)

	_, err := m.Get(ctx, "u1", "o1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisSessions(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "u1", "o1")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Put(ctx, "u1", "o1", Session{State: StateOTPRequested, RequestedAt: placedAt}))
	assert.True(t, mr.Exists("cancel:u1:o1"))
	assert.Equal(t, SessionTTL, mr.TTL("cancel:u1:o1"))

	sess, err := store.Get(ctx, "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, StateOTPRequested, sess.State)
	assert.True(t, placedAt.Equal(sess.RequestedAt))

	mr.FastForward(SessionTTL)
	_, err = store.Get(ctx, "u1", "o1")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Put(ctx, "u1", "o1", Session{State: StateOTPRequested}))
	require.NoError(t, store.Delete(ctx, "u1", "o1"))
	assert.False(t, mr.Exists("cancel:u1:o1"))
}
