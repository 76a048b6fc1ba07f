package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/legacybooks/internal/core/config"
	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
	redisclient "github.com/vietddude/legacybooks/internal/infra/redis"
	"github.com/vietddude/legacybooks/internal/infra/storage"
	"github.com/vietddude/legacybooks/internal/infra/storage/memory"
	"github.com/vietddude/legacybooks/internal/infra/storage/postgres"
	"github.com/vietddude/legacybooks/internal/metrics"
)

// OpenRejectRepository opens the configured reject backend. The returned DB
// is non-nil only for the postgres backend.
func OpenRejectRepository(ctx context.Context, cfg *config.AppConfig) (storage.RejectRepository, *postgres.DB, error) {
	switch cfg.Rejects.Backend {
	case config.BackendRedis:
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init redis: %w", err)
		}
		slog.Info("Using Redis reject storage", "ttl", cfg.Rejects.TTL)
		return redisclient.NewRejectRepo(client, cfg.Rejects.TTL), nil, nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("Using PostgreSQL reject storage", "driver", cfg.Database.Driver)
		return postgres.NewRejectRepo(db), db, nil

	default:
		slog.Info("Using Memory reject storage")
		return memory.NewRejectRepo(), nil, nil
	}
}

// rejectSink stores validation failures reported by the legacy client.
type rejectSink struct {
	repo storage.RejectRepository
	log  *slog.Logger
}

func (s *rejectSink) Reject(
	ctx context.Context,
	entity domain.Entity,
	source string,
	err *downstream.Error,
	payload []byte,
) {
	rec := storage.NewRejectedRecord(entity, source, err, payload)
	if addErr := s.repo.Add(ctx, rec); addErr != nil {
		s.log.Warn("Failed to store rejected payload",
			"entity", entity,
			"source", source,
			"error", addErr,
		)
		return
	}
	metrics.RejectsStored.WithLabelValues(string(entity)).Inc()
	s.log.Debug("Stored rejected payload", "id", rec.ID, "entity", entity, "field", rec.Field)
}
