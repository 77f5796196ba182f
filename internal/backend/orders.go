package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CreateOrder posts an order. Once the backend accepted it, an answer that
// does not describe the order still counts as success and yields a
// Processing order with an empty id.
func (c *Client) CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (domain.Order, error) {
	placed := domain.Order{
		Items:  draft.Items,
		Total:  draft.Total,
		Status: domain.OrderStatusProcessing,
	}

	var resp createOrderResponse
	err := c.do(ctx, http.MethodPost, "orders", token, toOrderRequest(draft), &resp)
	if errors.Is(err, ErrMalformed) {
		return placed, nil
	}
	if err != nil {
		return domain.Order{}, err
	}

	w := resp.orderWire
	if resp.Order != nil {
		w = *resp.Order
	}
	if w.ID == "" {
		return placed, nil
	}
	if w.Status == "" {
		w.Status = string(domain.OrderStatusProcessing)
	}
	o, err := w.normalize()
	if err != nil {
		return placed, nil
	}
	return o, nil
}

func (c *Client) MyOrders(ctx context.Context, token, userID string) ([]domain.Order, error) {
	var resp []orderWire
	if err := c.do(ctx, http.MethodGet, "orders/my-orders/"+url.PathEscape(userID), token, nil, &resp); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(resp))
	for _, w := range resp {
		o, err := w.normalize()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Client) SendCancelOTP(ctx context.Context, token, orderID string) error {
	return c.do(ctx, http.MethodPost, "orders/"+url.PathEscape(orderID)+"/send-cancel-otp", token, nil, nil)
}

func (c *Client) CancelOrder(ctx context.Context, token, orderID, reason, otp string) error {
	req := cancelOrderRequest{Reason: reason, OTP: otp}
	return c.do(ctx, http.MethodPost, "orders/"+url.PathEscape(orderID)+"/cancel", token, req, nil)
}
