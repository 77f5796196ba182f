package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/ledger"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Backend interface {
	Me(ctx context.Context, token string) (domain.Profile, error)
	CreatePayment(ctx context.Context, token string, amount decimal.Decimal, currency string) (domain.PaymentIntent, error)
	CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (domain.Order, error)
}

type Carts interface {
	Open(ctx context.Context, cartID string) (*cart.Store, error)
}

// Journal records every attempt and the events the outbox publishes.
type Journal interface {
	CreateAttempt(ctx context.Context, a *ledger.Attempt) error
	UpdateAttempt(ctx context.Context, a *ledger.Attempt) error
	RecordAttempt(ctx context.Context, a *ledger.Attempt, eventType string, payload []byte) error
}

type Request struct {
	CartID          string
	Token           string
	Method          domain.PaymentMethod
	PaymentMethodID string
	CouponCode      string
}

type Result struct {
	AttemptID  string
	Order      domain.Order
	PaymentRef string
}

// Orchestrator drives a cart through profile check, payment and order
// placement. Steps of one run are strictly sequential.
type Orchestrator struct {
	backend  Backend
	carts    Carts
	provider payment.Provider
	journal  Journal
	log      *zap.Logger
	currency string
	now      func() time.Time

	inflight sync.Map
}

func NewOrchestrator(be Backend, carts Carts, provider payment.Provider, journal Journal, log *zap.Logger, currency string) *Orchestrator {
	if currency == "" {
		currency = "eur"
	}
	return &Orchestrator{
		backend:  be,
		carts:    carts,
		provider: provider,
		journal:  journal,
		log:      log,
		currency: currency,
		now:      time.Now,
	}
}

func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if !req.Method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if _, busy := o.inflight.LoadOrStore(req.CartID, struct{}{}); busy {
		return nil, ErrCheckoutInProgress
	}
	defer o.inflight.Delete(req.CartID)

	r := o.newRun(ctx, req)
	return r.execute(ctx)
}
