package storefront

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"storefront-client/internal/httpclient"
)

type CartItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalAmount float64 `json:"totalAmount"`
	timestamps
}

type CartView struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	TotalAmount float64    `json:"totalAmount"`
	CartItems   []CartItem `json:"cartItems"`
	timestamps
}

type AddCartItemRequest struct {
	UserID      int64   `json:"userId"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	VariantID   *int64  `json:"variantId,omitempty"`
}

// Cart manages the per-user cart on the order service. userID is the
// userId claim of the session's access token.
type Cart struct {
	http *httpclient.Client
	log  *slog.Logger
}

func NewCart(hc *httpclient.Client, log *slog.Logger) *Cart {
	if log == nil {
		log = slog.Default()
	}
	return &Cart{http: hc, log: log}
}

func userPath(userID string) string {
	return "/api/carts/user/" + url.PathEscape(userID)
}

func (c *Cart) GetOrCreate(ctx context.Context, userID string) (*CartView, error) {
	var out CartView
	if err := c.http.Get(ctx, userPath(userID)+"/get-or-create", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Cart) Get(ctx context.Context, userID string) (*CartView, error) {
	var out CartView
	if err := c.http.Get(ctx, userPath(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Cart) Items(ctx context.Context, userID string) ([]CartItem, error) {
	var out []CartItem
	if err := c.http.Get(ctx, userPath(userID)+"/items", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cart) AddItem(ctx context.Context, req AddCartItemRequest) (*CartItem, error) {
	var out CartItem
	if err := c.http.Post(ctx, "/api/carts/items", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Cart) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (*CartItem, error) {
	var out CartItem
	q := url.Values{"quantity": {strconv.Itoa(quantity)}}
	if err := c.http.Put(ctx, "/api/carts/items/"+pathID(itemID)+"/quantity", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Cart) RemoveItem(ctx context.Context, itemID int64) error {
	return c.http.Delete(ctx, "/api/carts/items/"+pathID(itemID), nil)
}

func (c *Cart) Clear(ctx context.Context, userID string) error {
	return c.http.Delete(ctx, userPath(userID)+"/clear", nil)
}

// ClearItems empties the cart, falling back to Clear when the item-level
// endpoint fails.
func (c *Cart) ClearItems(ctx context.Context, userID string) error {
	err := c.http.Delete(ctx, userPath(userID)+"/items/clear", nil)
	if err == nil {
		return nil
	}
	c.log.Warn("clear cart items failed; falling back to clear cart", "err", err)
	return c.Clear(ctx, userID)
}
