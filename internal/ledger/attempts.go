package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const attemptColumns = `id, cart_id, user_id, method, state, total, payment_ref, order_id, failure, created_at, updated_at`

func (r *Repository) CreateAttempt(ctx context.Context, a *Attempt) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	query := `INSERT INTO checkout_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.CartID, a.UserID, string(a.Method), string(a.State), a.Total,
		a.PaymentRef, a.OrderID, a.Failure, a.CreatedAt.UTC(), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert checkout attempt: %w", err)
	}
	return nil
}

func (r *Repository) UpdateAttempt(ctx context.Context, a *Attempt) error {
	return updateAttempt(ctx, r.db, a)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateAttempt(ctx context.Context, db execer, a *Attempt) error {
	a.UpdatedAt = time.Now().UTC()
	query := `UPDATE checkout_attempts
		SET user_id = $1, state = $2, total = $3, payment_ref = $4, order_id = $5, failure = $6, updated_at = $7
		WHERE id = $8`
	res, err := db.ExecContext(ctx, query,
		a.UserID, string(a.State), a.Total, a.PaymentRef, a.OrderID, a.Failure, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update checkout attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (r *Repository) RecordAttempt(ctx context.Context, a *Attempt, eventType string, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateAttempt(ctx, tx, a); err != nil {
		return err
	}

	query := `INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, a.ID, eventType, string(payload), a.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListAttempts returns the most recent attempts, optionally filtered by state.
func (r *Repository) ListAttempts(ctx context.Context, state domain.CheckoutState, limit int) ([]*Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + attemptColumns + `
		FROM checkout_attempts
		WHERE (CAST($1 AS TEXT) = '' OR state = $1)
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, string(state), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkout attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		a := &Attempt{}
		var method, st string
		err := rows.Scan(
			&a.ID,
			&a.CartID,
			&a.UserID,
			&method,
			&st,
			&a.Total,
			&a.PaymentRef,
			&a.OrderID,
			&a.Failure,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout attempt: %w", err)
		}
		a.Method = domain.PaymentMethod(method)
		a.State = domain.CheckoutState(st)
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return attempts, nil
}

// ExpireAbandoned moves attempts stuck mid-flow since before staleBefore back to
// Idle with the abandoned failure.
func (r *Repository) ExpireAbandoned(ctx context.Context, staleBefore time.Time) (int64, error) {
	query := `UPDATE checkout_attempts
		SET state = $1, failure = $2, updated_at = $3
		WHERE state NOT IN ($4, $5) AND updated_at < $6`
	res, err := r.db.ExecContext(ctx, query,
		string(domain.CheckoutStateIdle), FailureAbandoned, time.Now().UTC(),
		string(domain.CheckoutStateIdle), string(domain.CheckoutStateDone), staleBefore.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire abandoned attempts: %w", err)
	}
	return res.RowsAffected()
}
