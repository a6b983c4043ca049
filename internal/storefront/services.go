// Package storefront holds typed clients for the storefront backend services.
// Every client sits on the authorized interceptor chain, one base URL per
// service.
package storefront

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"storefront-client/internal/config"
	"storefront-client/internal/httpclient"
)

// Page is the Spring Data page envelope.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
}

const defaultPageSize = 20

func pageQuery(page, size int) url.Values {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	return url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
}

// Services bundles the clients for every backend.
type Services struct {
	Catalog    *Catalog
	Cart       *Cart
	Orders     *Orders
	Wishlist   *Wishlist
	Warehouses *Warehouses
}

// NewServices builds all clients on hc, which should carry the
// httpclient.Transport of the active session.
func NewServices(cfg config.ServicesConfig, hc *http.Client, log *slog.Logger) (*Services, error) {
	inventory, err := httpclient.New(cfg.InventoryURL, hc)
	if err != nil {
		return nil, err
	}
	orders, err := httpclient.New(cfg.OrderURL, hc)
	if err != nil {
		return nil, err
	}
	warehouses, err := httpclient.New(cfg.WarehouseURL, hc)
	if err != nil {
		return nil, err
	}
	return &Services{
		Catalog:    NewCatalog(inventory),
		Cart:       NewCart(orders, log),
		Orders:     NewOrders(orders, cfg.OrderTimeout),
		Wishlist:   NewWishlist(orders),
		Warehouses: NewWarehouses(warehouses),
	}, nil
}

func pathID(id int64) string { return strconv.FormatInt(id, 10) }

// Timestamps arrive as zone-less LocalDateTime strings; they are kept verbatim.
type timestamps struct {
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}
