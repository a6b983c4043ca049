package storefront

import (
	"context"

	"storefront-client/internal/httpclient"
)

type CategorySummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type InventorySummary struct {
	Quantity          int `json:"quantity"`
	ReservedQuantity  int `json:"reservedQuantity"`
	AvailableQuantity int `json:"availableQuantity"`
}

type Product struct {
	ID                 int64             `json:"id"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	Price              float64           `json:"price"`
	SKU                string            `json:"sku,omitempty"`
	Barcode            string            `json:"barcode,omitempty"`
	ImageURL           string            `json:"imageUrl,omitempty"`
	IsActive           bool              `json:"isActive"`
	Category           *CategorySummary  `json:"category,omitempty"`
	Inventory          *InventorySummary `json:"inventory,omitempty"`
	ThirdPartySellerID *int64            `json:"thirdPartySellerId,omitempty"`
	SupplierID         *int64            `json:"supplierId,omitempty"`
	timestamps
}

type Category struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	ParentID      *int64     `json:"parentId,omitempty"`
	SubCategories []Category `json:"subCategories,omitempty"`
	CreatedAt     string     `json:"createdAt,omitempty"`
}

// Catalog reads products and categories from the inventory service.
type Catalog struct {
	http *httpclient.Client
}

func NewCatalog(hc *httpclient.Client) *Catalog { return &Catalog{http: hc} }

func (c *Catalog) Products(ctx context.Context, page, size int) (*Page[Product], error) {
	var out Page[Product]
	if err := c.http.Get(ctx, "/api/products", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Catalog) Product(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if err := c.http.Get(ctx, "/api/products/"+pathID(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Catalog) SearchProducts(ctx context.Context, keyword string, page, size int) (*Page[Product], error) {
	q := pageQuery(page, size)
	q.Set("keyword", keyword)
	var out Page[Product]
	if err := c.http.Get(ctx, "/api/products/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Catalog) ProductsByCategory(ctx context.Context, categoryID int64, page, size int) (*Page[Product], error) {
	var out Page[Product]
	if err := c.http.Get(ctx, "/api/products/category/"+pathID(categoryID), pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Catalog) ProductsBySeller(ctx context.Context, sellerID int64, page, size int) (*Page[Product], error) {
	var out Page[Product]
	if err := c.http.Get(ctx, "/api/products/seller/"+pathID(sellerID), pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyProducts lists the products of the seller the bearer token belongs to.
func (c *Catalog) MyProducts(ctx context.Context, page, size int) (*Page[Product], error) {
	var out Page[Product]
	if err := c.http.Get(ctx, "/api/products/my-products", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Catalog) Categories(ctx context.Context, page, size int) (*Page[Category], error) {
	var out Page[Category]
	if err := c.http.Get(ctx, "/categories", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Catalog) Category(ctx context.Context, id int64) (*Category, error) {
	var out Category
	if err := c.http.Get(ctx, "/categories/"+pathID(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Catalog) SearchCategories(ctx context.Context, name string, page, size int) (*Page[Category], error) {
	q := pageQuery(page, size)
	q.Set("name", name)
	var out Page[Category]
	if err := c.http.Get(ctx, "/categories/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
