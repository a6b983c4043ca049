package storefront

import (
	"context"

	"storefront-client/internal/httpclient"
)

type Warehouse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Address           string `json:"address,omitempty"`
	City              string `json:"city,omitempty"`
	State             string `json:"state,omitempty"`
	Country           string `json:"country,omitempty"`
	PostalCode        string `json:"postalCode,omitempty"`
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	Email             string `json:"email,omitempty"`
	Capacity          int    `json:"capacity"`
	CurrentOccupancy  int    `json:"currentOccupancy"`
	AvailableCapacity int    `json:"availableCapacity"`
	Status            string `json:"status,omitempty"`
	timestamps
}

type Warehouses struct {
	http *httpclient.Client
}

func NewWarehouses(hc *httpclient.Client) *Warehouses { return &Warehouses{http: hc} }

func (w *Warehouses) List(ctx context.Context, page, size int) (*Page[Warehouse], error) {
	var out Page[Warehouse]
	if err := w.http.Get(ctx, "/api/warehouses", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Warehouses) Get(ctx context.Context, id int64) (*Warehouse, error) {
	var out Warehouse
	if err := w.http.Get(ctx, "/api/warehouses/"+pathID(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
