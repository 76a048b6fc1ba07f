// Package domain holds the legacy books records, both as the legacy system
// sends them and in their normalized form.
package domain

// ListingResponse is a book listing as returned by the legacy API. Field
// names mirror the legacy payload, inconsistent casing included.
type ListingResponse struct {
	StoreID     Text `json:"storeID"`
	PurchaseURL Text `json:"purchase_url"`
	CreatedAt   Text `json:"created_at"`
	Price       Text `json:"PRICE"`
	IsInStock   Text `json:"isInStock"`
}

// StoreResponse is a store record as returned by the legacy API.
type StoreResponse struct {
	ID     Text `json:"id"`
	Name   Text `json:"name"`
	Active Text `json:"active"`
}

// BookResponse is a book with its listings as returned by the legacy API.
type BookResponse struct {
	Title    Text              `json:"Title"`
	ISBN     Text              `json:"isbn"`
	Listings []ListingResponse `json:"listings"`
}

// Listing is a normalized book listing.
// CreatedAt is an ISO-8601 UTC instant with millisecond precision.
type Listing struct {
	StoreID     string  `json:"storeId"`
	PurchaseURL string  `json:"purchaseUrl"`
	CreatedAt   string  `json:"createdAt"`
	Price       float64 `json:"price"`
	IsInStock   *bool   `json:"isInStock"` // nil = unknown
}

// Store is a normalized store.
type Store struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active *bool  `json:"active"` // nil = unknown
}

// Book is a normalized book with all of its listings.
type Book struct {
	Title    string    `json:"title"`
	ISBN     string    `json:"isbn"`
	Listings []Listing `json:"listings"`
}

// ListingWithStore is a listing joined with the store it belongs to.
type ListingWithStore struct {
	Listing
	Store Store `json:"store"`
}
