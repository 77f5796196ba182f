package backend

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// number is a decimal that travels as a bare JSON number.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

func (n *number) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*n = number(d)
	return nil
}

func (n *number) dec() decimal.Decimal {
	if n == nil {
		return decimal.Zero
	}
	return decimal.Decimal(*n)
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Banned  bool   `json:"banned"`
	Reason  string `json:"reason"`
}

// products/check-cart

type checkCartRequest struct {
	Items []checkCartItem `json:"items"`
}

type checkCartItem struct {
	ID    string `json:"_id"`
	Color string `json:"color,omitempty"`
}

type stockEntryWire struct {
	ID    string  `json:"_id"`
	Color string  `json:"color"`
	Price *number `json:"price"`
	Stock *int    `json:"stock"`
}

func (w stockEntryWire) normalize() (domain.LiveStockEntry, error) {
	if w.ID == "" || w.Price == nil || w.Stock == nil {
		return domain.LiveStockEntry{}, fmt.Errorf("%w: stock entry %q lacks id, price or stock", ErrMalformed, w.ID)
	}
	return domain.LiveStockEntry{
		ProductID: w.ID,
		Color:     w.Color,
		Price:     w.Price.dec(),
		Stock:     max(0, *w.Stock),
	}, nil
}

// products/:id

type productWire struct {
	ID        string        `json:"_id"`
	Name      string        `json:"name"`
	Price     *number       `json:"price"`
	RealPrice *number       `json:"realPrice"`
	Discount  int           `json:"discount"`
	Stock     int           `json:"stock"`
	Images    []string      `json:"images"`
	Variants  []variantWire `json:"variants"`
}

type variantWire struct {
	Color      string   `json:"color"`
	Dimensions string   `json:"dimensions"`
	Price      *number  `json:"price"`
	RealPrice  *number  `json:"realPrice"`
	Discount   *int     `json:"discount"`
	Stock      int      `json:"stock"`
	Images     []string `json:"images"`
}

func (w productWire) normalize() (domain.Product, error) {
	if w.ID == "" {
		return domain.Product{}, fmt.Errorf("%w: product without id", ErrMalformed)
	}
	p := domain.Product{ID: w.ID, Name: w.Name, Images: w.Images}

	if len(w.Variants) == 0 {
		if w.Price == nil {
			return domain.Product{}, fmt.Errorf("%w: product %s has no price", ErrMalformed, w.ID)
		}
		p.Offer = domain.Simple{
			Price:           w.Price.dec(),
			OriginalPrice:   orPrice(w.RealPrice, w.Price),
			DiscountPercent: w.Discount,
			Stock:           max(0, w.Stock),
		}
		return p, nil
	}

	variants := make([]domain.Variant, 0, len(w.Variants))
	for _, v := range w.Variants {
		price := v.Price
		if price == nil {
			price = w.Price
		}
		if price == nil {
			return domain.Product{}, fmt.Errorf("%w: variant %s/%s has no price", ErrMalformed, w.ID, v.Color)
		}
		realPrice := v.RealPrice
		if realPrice == nil {
			realPrice = w.RealPrice
		}
		discount := w.Discount
		if v.Discount != nil {
			discount = *v.Discount
		}
		variants = append(variants, domain.Variant{
			Color:           v.Color,
			Dimensions:      v.Dimensions,
			Price:           price.dec(),
			OriginalPrice:   orPrice(realPrice, price),
			DiscountPercent: discount,
			Stock:           max(0, v.Stock),
			Images:          v.Images,
		})
	}
	p.Offer = domain.HasVariants{Variants: variants}
	return p, nil
}

func orPrice(preferred, fallback *number) decimal.Decimal {
	if preferred != nil {
		return preferred.dec()
	}
	return fallback.dec()
}

// auth/me, auth/login

type userWire struct {
	ID          string `json:"_id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	SecondPhone string `json:"secondPhone"`
	Street      string `json:"street"`
	City        string `json:"city"`
	Area        string `json:"area"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	Country     string `json:"country"`
}

func (w userWire) normalize() (domain.Profile, error) {
	if w.ID == "" {
		return domain.Profile{}, fmt.Errorf("%w: user without id", ErrMalformed)
	}
	return domain.Profile{
		ID:          w.ID,
		FullName:    w.FullName,
		Email:       w.Email,
		Mobile:      w.Mobile,
		SecondPhone: w.SecondPhone,
		Street:      w.Street,
		City:        w.City,
		Area:        w.Area,
		State:       w.State,
		ZipCode:     w.ZipCode,
		Country:     w.Country,
	}, nil
}

type meResponse struct {
	User *userWire `json:"user"`
}

type updateMeRequest struct {
	FullName    *string `json:"fullName,omitempty"`
	Mobile      *string `json:"mobile,omitempty"`
	SecondPhone *string `json:"secondPhone,omitempty"`
	Street      *string `json:"street,omitempty"`
	City        *string `json:"city,omitempty"`
	Area        *string `json:"area,omitempty"`
	State       *string `json:"state,omitempty"`
	ZipCode     *string `json:"zipCode,omitempty"`
	Country     *string `json:"country,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string    `json:"token"`
	User    *userWire `json:"user"`
	Banned  bool      `json:"banned"`
	Reason  string    `json:"reason"`
	Message string    `json:"message"`
}

// payments/create-payment

type createPaymentRequest struct {
	Amount   number `json:"amount"`
	Currency string `json:"currency"`
}

type createPaymentResponse struct {
	ClientSecret string  `json:"clientSecret"`
	Amount       *number `json:"amount"`
}

// orders

type orderItemWire struct {
	Name    string `json:"name"`
	Price   number `json:"price"`
	Qty     int    `json:"qty"`
	Image   string `json:"image"`
	Product string `json:"product"`
	Color   string `json:"color,omitempty"`
}

type createOrderRequest struct {
	UserID          string          `json:"userId"`
	Items           []orderItemWire `json:"items"`
	Total           number          `json:"total"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Shipping        domain.Address  `json:"shipping"`
	Contact         domain.Contact  `json:"contact"`
	CouponCode      string          `json:"couponCode"`
}

type orderWire struct {
	ID           string          `json:"_id"`
	Items        []orderItemWire `json:"items"`
	Total        number          `json:"total"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	CancelReason string          `json:"cancelReason"`
}

// createOrderResponse accepts both {"order": {...}} and a bare order.
type createOrderResponse struct {
	Order *orderWire `json:"order"`
	orderWire
}

func (w orderWire) normalize() (domain.Order, error) {
	if w.ID == "" {
		return domain.Order{}, fmt.Errorf("%w: order without id", ErrMalformed)
	}
	status, err := domain.ParseOrderStatus(w.Status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: order %s: %v", ErrMalformed, w.ID, err)
	}
	items := make([]domain.OrderItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, domain.OrderItem{
			Name:      it.Name,
			Price:     decimal.Decimal(it.Price),
			Quantity:  it.Qty,
			Image:     it.Image,
			ProductID: it.Product,
			Color:     it.Color,
		})
	}
	return domain.Order{
		ID:           w.ID,
		Items:        items,
		Total:        decimal.Decimal(w.Total),
		Status:       status,
		CreatedAt:    w.CreatedAt,
		CancelReason: w.CancelReason,
	}, nil
}

func toOrderRequest(d domain.OrderDraft) createOrderRequest {
	items := make([]orderItemWire, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, orderItemWire{
			Name:    it.Name,
			Price:   number(it.Price),
			Qty:     it.Quantity,
			Image:   it.Image,
			Product: it.ProductID,
			Color:   it.Color,
		})
	}
	return createOrderRequest{
		UserID:          d.UserID,
		Items:           items,
		Total:           number(d.Total),
		PaymentIntentID: d.PaymentIntentID,
		Shipping:        d.Shipping,
		Contact:         d.Contact,
		CouponCode:      d.CouponCode,
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
	OTP    string `json:"otp"`
}
