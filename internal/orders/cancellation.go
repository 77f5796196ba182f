package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"go.uber.org/zap"
)

const (
	// CancelWindow is how long after placement a Processing order may be cancelled.
	CancelWindow = 2 * time.Hour

	ReasonOther  = "Other"
	maxOTPDigits = 6
)

var Reasons = []string{"Changed my mind", "Found cheaper elsewhere", "Order mistake", ReasonOther}

type Backend interface {
	MyOrders(ctx context.Context, token, userID string) ([]domain.Order, error)
	SendCancelOTP(ctx context.Context, token, orderID string) error
	CancelOrder(ctx context.Context, token, orderID, reason, otp string) error
}

type CancelRequest struct {
	Reason  string
	Details string
	OTP     string
}

// View is an order as listed to its owner.
type View struct {
	domain.Order
	Cancellable bool `json:"cancellable"`
}

// Cancellable reports whether order may still be cancelled at now.
func Cancellable(order domain.Order, now time.Time) bool {
	return order.Status == domain.OrderStatusProcessing && now.Sub(order.CreatedAt) < CancelWindow
}

type Service struct {
	backend  Backend
	sessions SessionStore
	log      *zap.Logger
	now      func() time.Time
}

func NewService(be Backend, sessions SessionStore, log *zap.Logger) *Service {
	return &Service{backend: be, sessions: sessions, log: log, now: time.Now}
}

func (s *Service) List(ctx context.Context, token, userID string) ([]View, error) {
	orders, err := s.backend.MyOrders(ctx, token, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]View, 0, len(orders))
	for _, o := range orders {
		views = append(views, View{Order: o, Cancellable: Cancellable(o, now)})
	}
	return views, nil
}

func (s *Service) Find(ctx context.Context, token, userID, orderID string) (domain.Order, error) {
	orders, err := s.backend.MyOrders(ctx, token, userID)
	if err != nil {
		return domain.Order{}, err
	}
	for _, o := range orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, ErrOrderNotFound
}

// RequestOTP asks the backend to send a cancellation code and opens a
// cancellation session for the order.
func (s *Service) RequestOTP(ctx context.Context, token, userID string, order domain.Order) error {
	if !Cancellable(order, s.now()) {
		return ErrNotCancellable
	}
	if err := s.backend.SendCancelOTP(ctx, token, order.ID); err != nil {
		return err
	}

	sess := Session{State: StateOTPRequested, RequestedAt: s.now().UTC()}
	if err := s.sessions.Put(ctx, userID, order.ID, sess); err != nil {
		return fmt.Errorf("store cancellation session: %w", err)
	}
	logger.WithContext(ctx, s.log).Info("cancellation otp requested",
		zap.String("user_id", userID), zap.String("order_id", order.ID))
	return nil
}

// ConfirmCancel cancels order with the code the shopper received. The order is
// only modified once the backend accepted the cancellation.
func (s *Service) ConfirmCancel(ctx context.Context, token, userID string, order *domain.Order, req CancelRequest) error {
	reason, err := validate(req)
	if err != nil {
		return err
	}
	if _, err := s.sessions.Get(ctx, userID, order.ID); err != nil {
		if errors.Is(err, ErrNoSession) {
			return ErrOTPNotRequested
		}
		return fmt.Errorf("load cancellation session: %w", err)
	}

	if err := s.backend.CancelOrder(ctx, token, order.ID, reason, strings.TrimSpace(req.OTP)); err != nil {
		return err
	}

	order.Status = domain.OrderStatusCancelled
	order.CancelReason = reason
	if err := s.sessions.Delete(ctx, userID, order.ID); err != nil {
		s.log.Warn("failed to drop cancellation session", zap.String("order_id", order.ID), zap.Error(err))
	}
	logger.WithContext(ctx, s.log).Info("order cancelled",
		zap.String("user_id", userID), zap.String("order_id", order.ID), zap.String("reason", reason))
	return nil
}

// validate returns the reason text to send.
func validate(req CancelRequest) (string, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return "", ErrReasonRequired
	}
	if !slices.Contains(Reasons, reason) {
		return "", ErrUnknownReason
	}
	if reason == ReasonOther {
		reason = strings.TrimSpace(req.Details)
		if reason == "" {
			return "", ErrReasonDetailsRequired
		}
	}

	otp := strings.TrimSpace(req.OTP)
	if otp == "" {
		return "", ErrOTPRequired
	}
	if len(otp) > maxOTPDigits || strings.IndexFunc(otp, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return "", ErrOTPInvalid
	}
	return reason, nil
}
