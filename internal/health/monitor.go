package health

import (
	"context"
	"fmt"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/infra/legacy"
)

// LegacySource exposes the client's view of the legacy API.
type LegacySource interface {
	Name() string
	Health() legacy.HealthStatus
}

// RejectCounter counts stored rejects.
type RejectCounter interface {
	Count(ctx context.Context, entity domain.Entity) (int, error)
}

// SyncReporter exposes the latest sync result per ISBN.
type SyncReporter interface {
	LastSyncs() map[string]SyncResult
}

// Monitor aggregates health status from the service components.
type Monitor struct {
	legacy  LegacySource
	rejects RejectCounter
	syncs   SyncReporter
}

// NewMonitor creates a new health monitor. syncs may be nil.
func NewMonitor(src LegacySource, rejects RejectCounter, syncs SyncReporter) *Monitor {
	return &Monitor{legacy: src, rejects: rejects, syncs: syncs}
}

// CheckHealth builds a report. The legacy API being unavailable is
// critical; a failed sync or an unreachable reject store is degraded.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	report := Report{
		Status: StatusHealthy,
		Legacy: LegacyHealth{Name: m.legacy.Name(), HealthStatus: m.legacy.Health()},
		Syncs:  map[string]SyncResult{},
	}

	if m.rejects != nil {
		n, err := m.rejects.Count(ctx, "")
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("reject store: %v", err))
			report.Status = StatusDegraded
		}
		report.Rejects = n
	}

	if m.syncs != nil {
		for isbn, res := range m.syncs.LastSyncs() {
			report.Syncs[isbn] = res
			if !res.OK {
				report.Status = StatusDegraded
			}
		}
	}

	if !report.Legacy.Available {
		report.Status = StatusCritical
	}
	return report
}
