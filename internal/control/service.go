// Package control wires the legacy client, reject storage and health
// server into a running service.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vietddude/legacybooks/internal/core/config"
	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
	"github.com/vietddude/legacybooks/internal/health"
	"github.com/vietddude/legacybooks/internal/infra/legacy"
	"github.com/vietddude/legacybooks/internal/infra/storage"
	"github.com/vietddude/legacybooks/internal/infra/storage/postgres"
	"github.com/vietddude/legacybooks/internal/metrics"
)

// Service keeps a set of books in sync with the legacy API.
type Service struct {
	cfg          *config.AppConfig
	client       *legacy.Client
	rejects      storage.RejectRepository
	db           *postgres.DB
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger

	mu   sync.RWMutex
	last map[string]health.SyncResult

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewService creates a Service with all dependencies initialized.
func NewService(ctx context.Context, cfg *config.AppConfig) (*Service, error) {
	rejects, db, err := OpenRejectRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log := slog.Default().With("component", "sync")
	client := legacy.NewClient(cfg.Legacy.Name, cfg.Legacy.BaseURL, cfg.Legacy.Timeout).
		WithRejectSink(&rejectSink{repo: rejects, log: log}).
		WithStoreCache(cfg.Legacy.StoreCacheTTL)

	s := &Service{
		cfg:     cfg,
		client:  client,
		rejects: rejects,
		db:      db,
		log:     log,
		last:    make(map[string]health.SyncResult),
	}
	s.healthMon = health.NewMonitor(client, rejects, s)
	s.healthServer = health.NewServer(s.healthMon, cfg.Server.Port)
	return s, nil
}

// Client returns the legacy API client.
func (s *Service) Client() *legacy.Client {
	return s.client
}

// Rejects returns the reject repository.
func (s *Service) Rejects() storage.RejectRepository {
	return s.rejects
}

// Health returns the current health report.
func (s *Service) Health(ctx context.Context) health.Report {
	return s.healthMon.CheckHealth(ctx)
}

// SyncBook fetches a book with its stores, retrying transient failures.
// The returned error is always a taxonomy error.
func (s *Service) SyncBook(ctx context.Context, isbn string) ([]domain.ListingWithStore, error) {
	start := time.Now()
	listings, err := legacy.Do(ctx, s.cfg.Retry, func(ctx context.Context) ([]domain.ListingWithStore, error) {
		return s.client.FetchBookWithStores(ctx, isbn)
	})

	res := health.SyncResult{ISBN: isbn, At: time.Now().UTC()}
	if err != nil {
		de := downstream.ClassifyUnknown(err, downstream.Context{"isbn": isbn})
		res.Kind = string(de.Kind())
		res.Field = de.Field()
		res.Error = err.Error()
		s.record(res)

		metrics.SyncRuns.WithLabelValues("failed").Inc()
		s.log.Warn("Book sync failed",
			"isbn", isbn,
			"duration", time.Since(start),
			"error", de,
		)
		return nil, de
	}

	res.OK = true
	res.Listings = len(listings)
	s.record(res)

	metrics.SyncRuns.WithLabelValues("ok").Inc()
	s.log.Info("Book synced",
		"isbn", isbn,
		"listings", len(listings),
		"duration", time.Since(start),
	)
	return listings, nil
}

// LastSyncs returns a copy of the latest result per ISBN.
func (s *Service) LastSyncs() map[string]health.SyncResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]health.SyncResult, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

func (s *Service) record(res health.SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[res.ISBN] = res
}

// Start starts the health server and, when ISBNs are configured, the sync
// loop. It returns immediately.
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		if err := s.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	if s.db != nil {
		s.db.StartMetricsCollector(ctx)
	}

	if len(s.cfg.Sync.ISBNs) == 0 {
		s.log.Info("No ISBNs configured, sync loop disabled")
		return nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	return nil
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		s.syncAll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) syncAll(ctx context.Context) {
	for _, isbn := range s.cfg.Sync.ISBNs {
		if ctx.Err() != nil {
			return
		}
		_, _ = s.SyncBook(ctx, isbn)
	}
}

// Stop stops the sync loop and health server, then closes the client and
// reject store.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	var errs []error
	if err := s.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop health server: %w", err))
	}
	_ = s.client.Close()
	if err := s.rejects.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close reject store: %w", err))
	}
	return errors.Join(errs...)
}
