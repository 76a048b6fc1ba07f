// Package health provides service health monitoring and status reporting.
package health

import (
	"time"

	"github.com/vietddude/legacybooks/internal/infra/legacy"
)

// SystemStatus represents the overall health state of the service.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// SyncResult is the outcome of the most recent sync of one book.
type SyncResult struct {
	ISBN     string    `json:"isbn"`
	OK       bool      `json:"ok"`
	Kind     string    `json:"kind,omitempty"`
	Field    string    `json:"field,omitempty"`
	Error    string    `json:"error,omitempty"`
	Listings int       `json:"listings"`
	At       time.Time `json:"at"`
}

// LegacyHealth describes the legacy endpoint as seen by the client.
type LegacyHealth struct {
	Name string `json:"name"`
	legacy.HealthStatus
}

// Report contains the full service health report.
type Report struct {
	Status  SystemStatus          `json:"status"`
	Legacy  LegacyHealth          `json:"legacy"`
	Rejects int                   `json:"rejects"`
	Syncs   map[string]SyncResult `json:"syncs"`
	Errors  []string              `json:"errors,omitempty"`
}
