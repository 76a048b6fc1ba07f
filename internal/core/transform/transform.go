package transform

import (
	"maps"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
)

// TransformListing validates storeID, purchase_url, created_at, PRICE and
// isInStock, in that order, stopping at the first invalid field.
func TransformListing(raw domain.ListingResponse) (domain.Listing, error) {
	storeID, err := RequireNonBlank("storeID", raw.StoreID)
	if err != nil {
		return domain.Listing{}, err
	}

	purchaseURL, err := RequireNonBlank("purchase_url", raw.PurchaseURL)
	if err != nil {
		return domain.Listing{}, err
	}

	createdAtRaw, err := RequireNonBlank("created_at", raw.CreatedAt)
	if err != nil {
		return domain.Listing{}, err
	}
	createdAt, err := ParseStrictTimestamp("created_at", createdAtRaw)
	if err != nil {
		return domain.Listing{}, err
	}

	priceRaw, err := RequireNonBlank("PRICE", raw.Price)
	if err != nil {
		return domain.Listing{}, err
	}
	price, err := ParseStrictNumber("PRICE", priceRaw)
	if err != nil {
		return domain.Listing{}, err
	}

	return domain.Listing{
		StoreID:     storeID,
		PurchaseURL: purchaseURL,
		CreatedAt:   createdAt,
		Price:       price,
		IsInStock:   ParseYesNo(raw.IsInStock),
	}, nil
}

// TransformStore validates id, name and active.
func TransformStore(raw domain.StoreResponse) (domain.Store, error) {
	id, err := RequireNonBlank("id", raw.ID)
	if err != nil {
		return domain.Store{}, err
	}

	name, err := RequireNonBlank("name", raw.Name)
	if err != nil {
		return domain.Store{}, err
	}

	return domain.Store{
		ID:     id,
		Name:   name,
		Active: ParseYesNo(raw.Active),
	}, nil
}

// TransformBook validates Title and isbn, then every listing in order. A
// failing listing is reported with its index and the book's isbn added to
// the listing error's context; the listing error is kept as the cause.
func TransformBook(raw domain.BookResponse) (domain.Book, error) {
	title, err := RequireNonBlank("Title", raw.Title)
	if err != nil {
		return domain.Book{}, err
	}

	isbn, err := RequireNonBlank("isbn", raw.ISBN)
	if err != nil {
		return domain.Book{}, err
	}

	listings := make([]domain.Listing, 0, len(raw.Listings))
	for i, rl := range raw.Listings {
		l, err := TransformListing(rl)
		if err != nil {
			return domain.Book{}, listingError(err, i, isbn)
		}
		listings = append(listings, l)
	}

	return domain.Book{
		Title:    title,
		ISBN:     isbn,
		Listings: listings,
	}, nil
}

func listingError(err error, index int, isbn string) error {
	inner, ok := downstream.As(err)
	if !ok {
		return err
	}

	ctx := downstream.Context{}
	maps.Copy(ctx, inner.Context())
	ctx["listing_index"] = index
	ctx["isbn"] = isbn

	return downstream.New(downstream.KindInvalidPayload,
		downstream.WithCause(inner),
		downstream.WithContext(ctx),
	)
}

// AttachStore joins a listing with its store. The store must be the one the
// listing references.
func AttachStore(l domain.Listing, s domain.Store) (domain.ListingWithStore, error) {
	if l.StoreID != s.ID {
		return domain.ListingWithStore{}, downstream.New(downstream.KindInvalidPayload,
			downstream.WithContext(downstream.Context{
				"field":    "storeID",
				"value":    l.StoreID,
				"store_id": s.ID,
			}),
		)
	}
	return domain.ListingWithStore{Listing: l, Store: s}, nil
}
