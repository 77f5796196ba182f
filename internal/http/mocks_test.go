package http

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/reconcile"
)

type mockProducts struct {
	products map[string]domain.Product
	err      error
}

func (m *mockProducts) GetProduct(_ context.Context, id string) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, backend.ErrNotFound
	}
	return p, nil
}

type fakeReconciler struct {
	mu        sync.Mutex
	result    reconcile.Result
	forgotten []string
}

func (f *fakeReconciler) Refresh(context.Context, string, []domain.CartLine) reconcile.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

func (f *fakeReconciler) Forget(cartID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, cartID)
}

type mockAccounts struct {
	session  backend.Session
	loginErr error
	profile  domain.Profile
	meErr    error
	update   domain.ProfileUpdate
	tokens   []string
}

func (m *mockAccounts) Login(context.Context, string, string) (backend.Session, error) {
	return m.session, m.loginErr
}

func (m *mockAccounts) Me(_ context.Context, token string) (domain.Profile, error) {
	m.tokens = append(m.tokens, token)
	return m.profile, m.meErr
}

func (m *mockAccounts) UpdateMe(_ context.Context, token string, u domain.ProfileUpdate) (domain.Profile, error) {
	m.tokens = append(m.tokens, token)
	m.update = u
	p := m.profile
	if u.City != nil {
		p.City = *u.City
	}
	return p, m.meErr
}

type mockOrders struct {
	views      []orders.View
	orders     map[string]domain.Order
	listErr    error
	otpErr     error
	cancelErr  error
	otpFor     []string
	cancelReq  orders.CancelRequest
	lastUserID string
}

func (m *mockOrders) List(_ context.Context, _, userID string) ([]orders.View, error) {
	m.lastUserID = userID
	return m.views, m.listErr
}

func (m *mockOrders) Find(_ context.Context, _, userID, orderID string) (domain.Order, error) {
	m.lastUserID = userID
	o, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrders) RequestOTP(_ context.Context, _, _ string, order domain.Order) error {
	if m.otpErr != nil {
		return m.otpErr
	}
	m.otpFor = append(m.otpFor, order.ID)
	return nil
}

func (m *mockOrders) ConfirmCancel(_ context.Context, _, _ string, order *domain.Order, req orders.CancelRequest) error {
	m.cancelReq = req
	if m.cancelErr != nil {
		return m.cancelErr
	}
	order.Status = domain.OrderStatusCancelled
	order.CancelReason = req.Reason
	return nil
}

type mockCheckout struct {
	req    checkout.Request
	calls  int
	result *checkout.Result
	err    error
}

func (m *mockCheckout) Run(_ context.Context, req checkout.Request) (*checkout.Result, error) {
	m.calls++
	m.req = req
	return m.result, m.err
}
