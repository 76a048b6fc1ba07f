package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vietddude/legacybooks/internal/core/domain"
)

func TestRunNormalize_File(t *testing.T) {
	var out bytes.Buffer
	err := runNormalize(nil, &out, domain.EntityBook, "../core/transform/testdata/book-response.valid.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var book domain.Book
	if err := json.Unmarshal(out.Bytes(), &book); err != nil {
		t.Fatalf("output is not a book: %v\n%s", err, out.String())
	}
	if len(book.Listings) != 2 {
		t.Errorf("expected 2 listings, got %d", len(book.Listings))
	}
}

func TestRunNormalize_Stdin(t *testing.T) {
	in := strings.NewReader(`{"id":"S9","name":" Attic ","active":"n"}`)
	var out bytes.Buffer
	if err := runNormalize(in, &out, domain.EntityStore, "-"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var store domain.Store
	if err := json.Unmarshal(out.Bytes(), &store); err != nil {
		t.Fatalf("output is not a store: %v", err)
	}
	if store.Name != "Attic" || store.Active != nil {
		t.Errorf("unexpected store %+v", store)
	}
}

func TestRunNormalize_PrintsClassifiedError(t *testing.T) {
	in := strings.NewReader(`{"storeID":"S1","purchase_url":"u","created_at":"01/15/2024 09:30:00","PRICE":"abc"}`)
	var out bytes.Buffer
	if err := runNormalize(in, &out, domain.EntityListing, "-"); err == nil {
		t.Fatal("expected an error")
	}

	var got errorOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not an error: %v\n%s", err, out.String())
	}
	if got.Kind != "DOWNSTREAM_INVALID_PAYLOAD" || got.Context["field"] != "PRICE" || got.Context["value"] != "abc" {
		t.Errorf("unexpected error output %+v", got)
	}
}
