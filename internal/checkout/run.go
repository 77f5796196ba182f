package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/ledger"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const journalTimeout = 5 * time.Second

// journalContext outlives the request: a captured payment is journaled even
// after the shopper has gone.
func journalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
}

// run is one checkout attempt.
type run struct {
	o       *Orchestrator
	req     Request
	attempt *ledger.Attempt
	log     *zap.Logger
}

func (o *Orchestrator) newRun(ctx context.Context, req Request) *run {
	a := &ledger.Attempt{
		ID:     uuid.NewString(),
		CartID: req.CartID,
		Method: req.Method,
		State:  domain.CheckoutStateIdle,
	}
	r := &run{
		o:       o,
		req:     req,
		attempt: a,
		log: logger.WithContext(ctx, o.log).With(
			zap.String("attempt_id", a.ID),
			zap.String("cart_id", req.CartID),
			zap.String("method", string(req.Method))),
	}
	jctx, cancel := journalContext(ctx)
	defer cancel()
	if err := o.journal.CreateAttempt(jctx, a); err != nil {
		r.log.Warn("failed to journal checkout attempt", zap.Error(err))
	}
	return r
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	ctx, span := otel.Tracer("storefront/checkout").Start(ctx, "checkout.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.attempt_id", r.attempt.ID),
		attribute.String("checkout.method", string(r.req.Method)))

	if err := r.transition(ctx, domain.CheckoutStateProfileCheck); err != nil {
		return nil, err
	}
	store, err := r.o.carts.Open(ctx, r.req.CartID)
	if err != nil {
		return nil, r.fail(ctx, fmt.Errorf("open cart: %w", err))
	}
	lines := store.Lines()
	if len(lines) == 0 {
		return nil, r.fail(ctx, ErrEmptyCart)
	}
	profile, err := r.checkProfile(ctx)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	r.attempt.UserID = profile.ID
	// charge exactly what the order will contain
	totals := domain.ComputeTotals(lines)
	r.attempt.Total = totals.Total.StringFixed(2)

	if err := r.transition(ctx, domain.CheckoutStateIntentRequested); err != nil {
		return nil, err
	}
	intent, err := r.o.backend.CreatePayment(ctx, r.req.Token, totals.Total, r.o.currency)
	if err != nil {
		return nil, r.fail(ctx, fmt.Errorf("create payment: %w", err))
	}

	if err := r.transition(ctx, domain.CheckoutStateProviderConfirming); err != nil {
		return nil, err
	}
	ref, err := r.confirmPayment(ctx, intent, profile)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	r.attempt.PaymentRef = ref

	// the profile may have changed while the shopper was paying
	profile, err = r.checkProfile(ctx)
	if err != nil {
		r.unreconciled(ctx, err)
		return nil, r.fail(ctx, err)
	}

	if err := r.transition(ctx, domain.CheckoutStateOrderSubmitting); err != nil {
		return nil, err
	}
	order, err := r.o.backend.CreateOrder(ctx, r.req.Token, r.draft(profile, lines, totals, ref))
	if err != nil {
		subErr := &OrderSubmissionError{PaymentRef: ref, Err: err}
		r.unreconciled(ctx, subErr)
		return nil, r.fail(ctx, subErr)
	}
	r.attempt.OrderID = order.ID

	if err := store.Clear(ctx); err != nil {
		r.log.Error("order placed but cart could not be cleared", zap.String("order_id", order.ID), zap.Error(err))
	}
	if err := r.complete(ctx, order); err != nil {
		return nil, err
	}

	return &Result{AttemptID: r.attempt.ID, Order: order, PaymentRef: ref}, nil
}

func (r *run) checkProfile(ctx context.Context) (domain.Profile, error) {
	profile, err := r.o.backend.Me(ctx, r.req.Token)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if missing := profile.MissingFields(); len(missing) > 0 {
		return domain.Profile{}, &ProfileIncompleteError{Missing: missing}
	}
	return profile, nil
}

func (r *run) confirmPayment(ctx context.Context, intent domain.PaymentIntent, profile domain.Profile) (string, error) {
	if r.req.Method == domain.PaymentMethodCOD {
		return payment.CashOnDeliveryReference(r.o.now()), nil
	}
	return r.o.provider.Confirm(ctx, intent, r.req.PaymentMethodID, profile.Shipping())
}

func (r *run) draft(profile domain.Profile, lines []domain.CartLine, totals domain.Totals, ref string) domain.OrderDraft {
	return domain.OrderDraft{
		UserID:          profile.ID,
		Items:           domain.OrderItemsFromLines(lines),
		Total:           totals.Total,
		PaymentIntentID: ref,
		Shipping:        profile.Shipping(),
		Contact:         profile.Contact(),
		CouponCode:      r.req.CouponCode,
	}
}

func (r *run) transition(ctx context.Context, to domain.CheckoutState) error {
	from := r.attempt.State
	if !domain.CanTransitionTo(from, to) {
		r.log.Error("illegal checkout transition", zap.Stringer("from", from), zap.Stringer("to", to))
		return ErrIllegalTransition
	}
	r.attempt.State = to
	metrics.RecordCheckoutTransition(from.String(), to.String())
	r.log.Info("checkout transition", zap.Stringer("from", from), zap.Stringer("to", to))

	if to == domain.CheckoutStateDone {
		return nil
	}
	jctx, cancel := journalContext(ctx)
	defer cancel()
	if err := r.o.journal.UpdateAttempt(jctx, r.attempt); err != nil {
		r.log.Warn("failed to journal checkout transition", zap.Error(err))
	}
	return nil
}

// fail returns the attempt to Idle and hands err back to the caller.
func (r *run) fail(ctx context.Context, err error) error {
	r.attempt.Failure = err.Error()
	if terr := r.transition(ctx, domain.CheckoutStateIdle); terr != nil {
		return errors.Join(err, terr)
	}
	metrics.RecordCheckoutOutcome(outcome(err))
	r.log.Warn("checkout failed", zap.String("payment_ref", r.attempt.PaymentRef), zap.Error(err))
	return err
}

func (r *run) complete(ctx context.Context, order domain.Order) error {
	if err := r.transition(ctx, domain.CheckoutStateDone); err != nil {
		return err
	}
	metrics.RecordCheckoutOutcome("placed")
	r.log.Info("order placed", zap.String("order_id", order.ID), zap.String("payment_ref", r.attempt.PaymentRef))

	payload, err := json.Marshal(orderPlaced{
		AttemptID:  r.attempt.ID,
		CartID:     r.attempt.CartID,
		UserID:     r.attempt.UserID,
		OrderID:    order.ID,
		PaymentRef: r.attempt.PaymentRef,
		Method:     string(r.attempt.Method),
		Total:      r.attempt.Total,
		Currency:   r.o.currency,
		PlacedAt:   r.o.now().UTC(),
	})
	if err != nil {
		r.log.Error("failed to marshal order_placed event", zap.Error(err))
		return nil
	}
	jctx, cancel := journalContext(ctx)
	defer cancel()
	if err := r.o.journal.RecordAttempt(jctx, r.attempt, ledger.EventOrderPlaced, payload); err != nil {
		r.log.Error("failed to journal placed order", zap.String("order_id", order.ID), zap.Error(err))
	}
	return nil
}

// unreconciled journals a payment that succeeded without an order behind it.
func (r *run) unreconciled(ctx context.Context, cause error) {
	if r.req.Method == domain.PaymentMethodCOD {
		return
	}
	payload, err := json.Marshal(paymentUnreconciled{
		AttemptID:  r.attempt.ID,
		CartID:     r.attempt.CartID,
		UserID:     r.attempt.UserID,
		PaymentRef: r.attempt.PaymentRef,
		Total:      r.attempt.Total,
		Currency:   r.o.currency,
		Reason:     cause.Error(),
		FailedAt:   r.o.now().UTC(),
	})
	if err != nil {
		r.log.Error("failed to marshal payment_unreconciled event", zap.Error(err))
		return
	}
	jctx, cancel := journalContext(ctx)
	defer cancel()
	if err := r.o.journal.RecordAttempt(jctx, r.attempt, ledger.EventPaymentUnreconciled, payload); err != nil {
		r.log.Error("failed to journal unreconciled payment",
			zap.String("payment_ref", r.attempt.PaymentRef), zap.Error(err))
	}
}

func outcome(err error) string {
	var (
		profileErr  *ProfileIncompleteError
		providerErr *payment.ProviderError
		submitErr   *OrderSubmissionError
	)
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &profileErr):
		return "profile_incomplete"
	case errors.As(err, &providerErr):
		return "payment_failed"
	case errors.As(err, &submitErr):
		return "order_failed"
	default:
		return "error"
	}
}
