package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	EventOrderPlaced         = "order_placed"
	EventPaymentUnreconciled = "payment_unreconciled"

	// FailureAbandoned marks attempts that never reached a terminal state.
	FailureAbandoned = "abandoned"
)

var ErrAttemptNotFound = errors.New("checkout attempt not found")

// Attempt is the journal row of one checkout run.
type Attempt struct {
	ID         string
	CartID     string
	UserID     string
	Method     domain.PaymentMethod
	State      domain.CheckoutState
	Total      string
	PaymentRef string
	OrderID    string
	Failure    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

type RepoInterface interface {
	Close() error
	RunMigrations(migrationsPath string) error

	CreateAttempt(ctx context.Context, a *Attempt) error
	UpdateAttempt(ctx context.Context, a *Attempt) error
	// RecordAttempt updates the attempt and appends an outbox event in one transaction.
	RecordAttempt(ctx context.Context, a *Attempt, eventType string, payload []byte) error
	ListAttempts(ctx context.Context, state domain.CheckoutState, limit int) ([]*Attempt, error)
	ExpireAbandoned(ctx context.Context, staleBefore time.Time) (int64, error)

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
