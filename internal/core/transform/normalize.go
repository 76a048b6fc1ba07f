package transform

import (
	"encoding/json"
	"fmt"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
)

// Normalize decodes a raw legacy payload of the given entity and
// transforms it. A payload that is not a JSON object fails on "$body".
func Normalize(entity domain.Entity, payload []byte) (any, error) {
	switch entity {
	case domain.EntityListing:
		var raw domain.ListingResponse
		if err := decode(payload, &raw); err != nil {
			return nil, err
		}
		return TransformListing(raw)
	case domain.EntityStore:
		var raw domain.StoreResponse
		if err := decode(payload, &raw); err != nil {
			return nil, err
		}
		return TransformStore(raw)
	case domain.EntityBook:
		var raw domain.BookResponse
		if err := decode(payload, &raw); err != nil {
			return nil, err
		}
		return TransformBook(raw)
	default:
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return downstream.New(downstream.KindInvalidPayload,
			downstream.WithCause(fmt.Errorf("parse payload: %w", err)),
			downstream.WithContext(downstream.Context{"field": "$body"}),
		)
	}
	return nil
}
