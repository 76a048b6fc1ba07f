package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/infra/legacy"
)

type fakeLegacy struct {
	status legacy.HealthStatus
}

func (f fakeLegacy) Name() string                { return "legacy" }
func (f fakeLegacy) Health() legacy.HealthStatus { return f.status }

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count(context.Context, domain.Entity) (int, error) { return f.n, f.err }

type fakeSyncs map[string]SyncResult

func (f fakeSyncs) LastSyncs() map[string]SyncResult { return f }

func TestMonitor_CheckHealth(t *testing.T) {
	tests := []struct {
		name    string
		src     fakeLegacy
		counter fakeCounter
		syncs   fakeSyncs
		want    SystemStatus
	}{
		{
			name:  "healthy",
			src:   fakeLegacy{legacy.HealthStatus{Available: true}},
			syncs: fakeSyncs{"1": {ISBN: "1", OK: true}},
			want:  StatusHealthy,
		},
		{
			name:  "failed sync degrades",
			src:   fakeLegacy{legacy.HealthStatus{Available: true}},
			syncs: fakeSyncs{"1": {ISBN: "1", OK: true}, "2": {ISBN: "2", Kind: "DOWNSTREAM_INVALID_PAYLOAD"}},
			want:  StatusDegraded,
		},
		{
			name:    "reject store error degrades",
			src:     fakeLegacy{legacy.HealthStatus{Available: true}},
			counter: fakeCounter{err: errors.New("dial tcp: refused")},
			want:    StatusDegraded,
		},
		{
			name:  "unavailable legacy is critical",
			src:   fakeLegacy{legacy.HealthStatus{Available: false}},
			syncs: fakeSyncs{"2": {ISBN: "2"}},
			want:  StatusCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(tt.src, tt.counter, tt.syncs)
			if got := m.CheckHealth(context.Background()).Status; got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestServer_Endpoints(t *testing.T) {
	m := NewMonitor(
		fakeLegacy{legacy.HealthStatus{Available: true, Requests: 4}},
		fakeCounter{n: 3},
		fakeSyncs{"9780141439518": {ISBN: "9780141439518", OK: true, Listings: 2}},
	)
	srv := httptest.NewServer(NewServer(m, 0).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get /health: %v", err)
	}
	var short map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&short); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || short["status"] != "healthy" {
		t.Errorf("unexpected /health response %d %v", resp.StatusCode, short)
	}

	resp, err = http.Get(srv.URL + "/health/detailed")
	if err != nil {
		t.Fatalf("get /health/detailed: %v", err)
	}
	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if report.Rejects != 3 || report.Legacy.Name != "legacy" || report.Legacy.Requests != 4 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Syncs["9780141439518"].Listings != 2 {
		t.Errorf("missing sync result %+v", report.Syncs)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status %d", resp.StatusCode)
	}
}

func TestServer_CriticalReturns503(t *testing.T) {
	m := NewMonitor(fakeLegacy{legacy.HealthStatus{Available: false}}, nil, nil)
	srv := httptest.NewServer(NewServer(m, 0).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}
