package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/ledger"
	"github.com/shopspring/decimal"
)

type MockBackend struct {
	mu sync.Mutex

	Profiles  []domain.Profile // returned in order; the last one repeats
	MeErr     error
	meCalls   int
	Intent    domain.PaymentIntent
	IntentErr error
	Order     domain.Order
	OrderErr  error

	PaymentAmount decimal.Decimal
	PaymentCalls  int
	Drafts        []domain.OrderDraft
	block         chan struct{}

	// OnMe runs before every profile fetch, outside the lock.
	OnMe func(call int)
}

func (m *MockBackend) Me(_ context.Context, _ string) (domain.Profile, error) {
	if m.OnMe != nil {
		m.mu.Lock()
		call := m.meCalls
		m.mu.Unlock()
		m.OnMe(call)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MeErr != nil {
		return domain.Profile{}, m.MeErr
	}
	i := min(m.meCalls, len(m.Profiles)-1)
	m.meCalls++
	return m.Profiles[i], nil
}

func (m *MockBackend) CreatePayment(_ context.Context, _ string, amount decimal.Decimal, _ string) (domain.PaymentIntent, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PaymentCalls++
	m.PaymentAmount = amount
	return m.Intent, m.IntentErr
}

func (m *MockBackend) CreateOrder(ctx context.Context, _ string, draft domain.OrderDraft) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Drafts = append(m.Drafts, draft)
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	return m.Order, m.OrderErr
}

type MockProvider struct {
	Ref     string
	Err     error
	Calls   int
	Billing domain.Address

	OnConfirm func()
}

func (m *MockProvider) Confirm(_ context.Context, _ domain.PaymentIntent, _ string, billing domain.Address) (string, error) {
	if m.OnConfirm != nil {
		m.OnConfirm()
	}
	m.Calls++
	m.Billing = billing
	return m.Ref, m.Err
}

type recordedEvent struct {
	Type    string
	Payload []byte
}

type MockJournal struct {
	mu       sync.Mutex
	States   []domain.CheckoutState
	Events   []recordedEvent
	Attempts map[string]ledger.Attempt
}

func (m *MockJournal) CreateAttempt(ctx context.Context, a *ledger.Attempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Attempts == nil {
		m.Attempts = make(map[string]ledger.Attempt)
	}
	m.Attempts[a.ID] = *a
	m.States = append(m.States, a.State)
	return nil
}

func (m *MockJournal) UpdateAttempt(ctx context.Context, a *ledger.Attempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts[a.ID] = *a
	m.States = append(m.States, a.State)
	return nil
}

func (m *MockJournal) RecordAttempt(ctx context.Context, a *ledger.Attempt, eventType string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts[a.ID] = *a
	m.States = append(m.States, a.State)
	m.Events = append(m.Events, recordedEvent{Type: eventType, Payload: payload})
	return nil
}
