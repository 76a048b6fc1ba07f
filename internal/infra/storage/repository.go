package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
)

var (
	// ErrRejectNotFound is returned when a rejected record doesn't exist
	ErrRejectNotFound = errors.New("rejected record not found")
)

// RejectRepository stores payloads that failed validation
type RejectRepository interface {
	// Add stores a rejected record
	Add(ctx context.Context, rec *domain.RejectedRecord) error

	// Get retrieves a rejected record by id
	Get(ctx context.Context, id string) (*domain.RejectedRecord, error)

	// List returns the newest records first; an empty entity means all
	List(ctx context.Context, entity domain.Entity, limit int) ([]*domain.RejectedRecord, error)

	// Count returns the number of stored records; an empty entity means all
	Count(ctx context.Context, entity domain.Entity) (int, error)

	// Delete removes a record once it has been triaged
	Delete(ctx context.Context, id string) error

	// Close releases the underlying connection
	Close() error
}

// NewRejectedRecord builds a record from a validation failure and the raw
// payload that caused it. Payloads that are not valid JSON are stored as a
// JSON string so the record stays serializable.
func NewRejectedRecord(
	entity domain.Entity,
	source string,
	err *downstream.Error,
	payload []byte,
) *domain.RejectedRecord {
	ctx := err.Context()

	rec := &domain.RejectedRecord{
		ID:        uuid.NewString(),
		Entity:    entity,
		Source:    source,
		Kind:      string(err.Kind()),
		Message:   err.Message(),
		Field:     err.Field(),
		Value:     ctx["value"],
		Context:   ctx,
		CreatedAt: time.Now().UTC(),
	}

	if len(payload) > 0 {
		if json.Valid(payload) {
			rec.Payload = append(json.RawMessage(nil), payload...)
		} else if quoted, mErr := json.Marshal(string(payload)); mErr == nil {
			rec.Payload = quoted
		}
	}
	return rec
}
