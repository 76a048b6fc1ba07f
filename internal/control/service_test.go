package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/legacybooks/internal/core/config"
	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
	"github.com/vietddude/legacybooks/internal/health"
	"github.com/vietddude/legacybooks/internal/infra/legacy"
)

const (
	validBook = `{"Title":"Emma","isbn":"9780141439587","listings":[
		{"storeID":"S1","purchase_url":"https://a.example/emma","created_at":"01/15/2024 09:30:00","PRICE":"12.00","isInStock":"yes"}]}`
	badBook = `{"Title":"Emma","isbn":"9780141439587","listings":[
		{"storeID":"S1","purchase_url":"https://a.example/emma","created_at":"2024-01-15T09:30:00Z","PRICE":"12.00","isInStock":"yes"}]}`
	validStore = `{"id":"S1","name":"Corner Books","active":"yes"}`
)

func testConfig(baseURL string) *config.AppConfig {
	return &config.AppConfig{
		Server: config.ServerConfig{Port: 0},
		Legacy: config.LegacyConfig{Name: "legacy", BaseURL: baseURL, Timeout: 2 * time.Second},
		Retry: legacy.RetryConfig{
			MaxAttempts:     3,
			InitialDelay:    time.Millisecond,
			MaxDelay:        2 * time.Millisecond,
			BackoffMultiple: 2,
		},
		Rejects: config.RejectsConfig{Backend: config.BackendMemory},
		Sync:    config.SyncConfig{Interval: time.Hour},
	}
}

func legacyServer(t *testing.T, book string, bookStatus int, bookHits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/books/9780141439587", func(w http.ResponseWriter, r *http.Request) {
		if bookHits != nil {
			atomic.AddInt32(bookHits, 1)
		}
		w.WriteHeader(bookStatus)
		_, _ = w.Write([]byte(book))
	})
	mux.HandleFunc("/stores/S1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validStore))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, cfg *config.AppConfig) *Service {
	t.Helper()
	s, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestService_SyncBook(t *testing.T) {
	srv := legacyServer(t, validBook, http.StatusOK, nil)
	s := newTestService(t, testConfig(srv.URL))

	listings, err := s.SyncBook(context.Background(), "9780141439587")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 || listings[0].Store.Name != "Corner Books" {
		t.Fatalf("unexpected listings %+v", listings)
	}
	if listings[0].CreatedAt != "2024-01-15T09:30:00.000Z" {
		t.Errorf("unexpected createdAt %q", listings[0].CreatedAt)
	}

	res := s.LastSyncs()["9780141439587"]
	if !res.OK || res.Listings != 1 {
		t.Errorf("unexpected sync result %+v", res)
	}
	if got := s.Health(context.Background()).Status; got != health.StatusHealthy {
		t.Errorf("expected healthy, got %s", got)
	}
}

func TestService_SyncBook_InvalidPayloadIsRejected(t *testing.T) {
	var hits int32
	srv := legacyServer(t, badBook, http.StatusOK, &hits)
	s := newTestService(t, testConfig(srv.URL))

	_, err := s.SyncBook(context.Background(), "9780141439587")
	de, ok := downstream.As(err)
	if !ok || de.Kind() != downstream.KindInvalidPayload {
		t.Fatalf("expected invalid payload, got %v", err)
	}
	if hits != 1 {
		t.Errorf("invalid payloads must not be retried, got %d fetches", hits)
	}

	recs, err := s.Rejects().List(context.Background(), domain.EntityBook, 10)
	if err != nil {
		t.Fatalf("list rejects: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 reject, got %d", len(recs))
	}
	if recs[0].Source != "9780141439587" || recs[0].Field != "created_at" {
		t.Errorf("unexpected reject %+v", recs[0])
	}

	res := s.LastSyncs()["9780141439587"]
	if res.OK || res.Kind != string(downstream.KindInvalidPayload) || res.Field != "created_at" {
		t.Errorf("unexpected sync result %+v", res)
	}

	report := s.Health(context.Background())
	if report.Status != health.StatusDegraded || report.Rejects != 1 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestService_SyncBook_RetriesUnavailable(t *testing.T) {
	var hits int32
	srv := legacyServer(t, `{}`, http.StatusServiceUnavailable, &hits)
	cfg := testConfig(srv.URL)
	s := newTestService(t, cfg)

	_, err := s.SyncBook(context.Background(), "9780141439587")
	if !downstream.HasKind(err, downstream.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if int(hits) != cfg.Retry.MaxAttempts {
		t.Errorf("expected %d fetches, got %d", cfg.Retry.MaxAttempts, hits)
	}
	if got := s.Health(context.Background()).Status; got != health.StatusCritical {
		t.Errorf("expected critical, got %s", got)
	}
}

func TestService_Lifecycle(t *testing.T) {
	srv := legacyServer(t, validBook, http.StatusOK, nil)
	cfg := testConfig(srv.URL)
	cfg.Sync.ISBNs = []string{"9780141439587"}

	s, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(s.LastSyncs()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !s.LastSyncs()["9780141439587"].OK {
		t.Errorf("expected first sync to run on start, got %+v", s.LastSyncs())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
