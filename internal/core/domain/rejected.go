package domain

import (
	"encoding/json"
	"time"
)

// Entity names the kind of legacy record.
type Entity string

const (
	EntityListing Entity = "listing"
	EntityStore   Entity = "store"
	EntityBook    Entity = "book"
)

// RejectedRecord is a legacy payload that failed validation, kept so that
// operators can triage it against the legacy system's own logs.
type RejectedRecord struct {
	ID        string          `json:"id"`
	Entity    Entity          `json:"entity"`
	Source    string          `json:"source"` // lookup key, e.g. ISBN or store id
	Kind      string          `json:"kind"`
	Message   string          `json:"message"`
	Field     string          `json:"field,omitempty"`
	Value     any             `json:"value,omitempty"`
	Context   map[string]any  `json:"context,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
