package storefront

import (
	"context"
	"errors"
	"net/url"
	"time"

	"storefront-client/internal/httpclient"
)

// ErrOrderTimeout is returned when order creation outlives the client-side
// timeout. The request itself is not cancelled and may still complete.
var ErrOrderTimeout = errors.New("storefront: order request timed out; please try again")

const DefaultOrderTimeout = 30 * time.Second

type OrderItem struct {
	ID          int64   `json:"id,omitempty"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalAmount float64 `json:"totalAmount,omitempty"`
}

type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"orderNumber"`
	UserID          int64       `json:"userId"`
	Status          string      `json:"status"`
	TotalAmount     float64     `json:"totalAmount"`
	ShippingAddress string      `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	PaymentStatus   string      `json:"paymentStatus"`
	OrderItems      []OrderItem `json:"orderItems"`
	timestamps
}

type OrderRequest struct {
	UserID          int64       `json:"userId"`
	ShippingAddress string      `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	OrderItems      []OrderItem `json:"orderItems"`
}

type Orders struct {
	http    *httpclient.Client
	timeout time.Duration
}

func NewOrders(hc *httpclient.Client, timeout time.Duration) *Orders {
	if timeout <= 0 {
		timeout = DefaultOrderTimeout
	}
	return &Orders{http: hc, timeout: timeout}
}

// Create places an order. If the backend does not answer within the order
// timeout, ErrOrderTimeout is returned while the request keeps running.
func (o *Orders) Create(ctx context.Context, req OrderRequest) (*Order, error) {
	type result struct {
		order *Order
		err   error
	}
	done := make(chan result, 1)
	go func() {
		var out Order
		err := o.http.Post(context.WithoutCancel(ctx), "/api/orders", req, &out)
		done <- result{order: &out, err: err}
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()
	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return r.order, nil
	case <-timer.C:
		return nil, ErrOrderTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (o *Orders) Get(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := o.http.Get(ctx, "/api/orders/"+pathID(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *Orders) ByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var out Order
	if err := o.http.Get(ctx, "/api/orders/number/"+url.PathEscape(orderNumber), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *Orders) ByUser(ctx context.Context, userID string, page, size int) (*Page[Order], error) {
	var out Page[Order]
	if err := o.http.Get(ctx, "/api/orders/user/"+url.PathEscape(userID), pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
