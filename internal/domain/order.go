package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusPacked     OrderStatus = "Packed"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// ParseOrderStatus accepts any casing of the known statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range []OrderStatus{OrderStatusProcessing, OrderStatusPacked, OrderStatusDelivered, OrderStatusCancelled} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type OrderItem struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	Image     string          `json:"image"`
	ProductID string          `json:"product"`
	Color     string          `json:"color,omitempty"`
}

type Order struct {
	ID           string          `json:"id"`
	Items        []OrderItem     `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Status       OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	CancelReason string          `json:"cancel_reason,omitempty"`
}

type Address struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// OrderDraft is what the storefront submits to place an order.
type OrderDraft struct {
	UserID          string
	Items           []OrderItem
	Total           decimal.Decimal
	PaymentIntentID string
	Shipping        Address
	Contact         Contact
	CouponCode      string
}

func OrderItemsFromLines(lines []CartLine) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			Name:      l.Name,
			Price:     l.UnitPrice,
			Quantity:  l.Quantity,
			Image:     l.ImageURL,
			ProductID: l.ProductID,
			Color:     l.Color(),
		})
	}
	return items
}
