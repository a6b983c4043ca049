package storefront

import (
	"context"
	"net/http"
	"net/url"

	"storefront-client/internal/httpclient"
)

type WishlistItem struct {
	ID                 int64   `json:"id"`
	ProductID          int64   `json:"productId"`
	ProductName        string  `json:"productName"`
	ProductDescription string  `json:"productDescription,omitempty"`
	ProductImageURL    string  `json:"productImageUrl,omitempty"`
	ProductPrice       float64 `json:"productPrice"`
}

type WishlistView struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"userId"`
	WishlistItems []WishlistItem `json:"wishlistItems"`
}

type WishlistItemRequest struct {
	ProductID          int64   `json:"productId"`
	ProductName        string  `json:"productName"`
	ProductDescription string  `json:"productDescription"`
	ProductImageURL    string  `json:"productImageUrl"`
	ProductPrice       float64 `json:"productPrice"`
}

// ItemFromProduct builds a wishlist entry from a catalog product.
func ItemFromProduct(p Product) WishlistItemRequest {
	return WishlistItemRequest{
		ProductID:          p.ID,
		ProductName:        p.Name,
		ProductDescription: p.Description,
		ProductImageURL:    p.ImageURL,
		ProductPrice:       p.Price,
	}
}

type Wishlist struct {
	http *httpclient.Client
}

func NewWishlist(hc *httpclient.Client) *Wishlist { return &Wishlist{http: hc} }

// Get returns the user's wishlist, or nil when the order service reports none
// (it answers 404 or 500 for a missing wishlist).
func (w *Wishlist) Get(ctx context.Context, userID string) (*WishlistView, error) {
	var out WishlistView
	err := w.http.Get(ctx, "/api/wishlists/user/"+url.PathEscape(userID), nil, &out)
	if httpclient.IsStatus(err, http.StatusNotFound) || httpclient.IsStatus(err, http.StatusInternalServerError) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Wishlist) Create(ctx context.Context, userID int64) (*WishlistView, error) {
	var out WishlistView
	if err := w.http.Post(ctx, "/api/wishlists", map[string]int64{"userId": userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Wishlist) GetOrCreate(ctx context.Context, userID int64) (*WishlistView, error) {
	wl, err := w.Get(ctx, pathID(userID))
	if err != nil {
		return nil, err
	}
	if wl != nil {
		return wl, nil
	}
	return w.Create(ctx, userID)
}

func (w *Wishlist) AddItem(ctx context.Context, wishlistID int64, item WishlistItemRequest) (*WishlistView, error) {
	var out WishlistView
	if err := w.http.Post(ctx, "/api/wishlists/"+pathID(wishlistID)+"/items", item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Wishlist) RemoveItem(ctx context.Context, wishlistID, itemID int64) error {
	return w.http.Delete(ctx, "/api/wishlists/"+pathID(wishlistID)+"/items/"+pathID(itemID), nil)
}

// Contains reports whether productID is on the user's wishlist and, if so,
// the wishlist item id. Lookup failures read as "not present".
func (w *Wishlist) Contains(ctx context.Context, userID string, productID int64) (bool, int64) {
	wl, err := w.Get(ctx, userID)
	if err != nil || wl == nil {
		return false, 0
	}
	for _, it := range wl.WishlistItems {
		if it.ProductID == productID {
			return true, it.ID
		}
	}
	return false, 0
}
