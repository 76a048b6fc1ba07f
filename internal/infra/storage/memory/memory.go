package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/infra/storage"
)

// RejectRepo implements storage.RejectRepository in memory.
type RejectRepo struct {
	records map[string]*domain.RejectedRecord
	mu      sync.RWMutex
}

func NewRejectRepo() *RejectRepo {
	return &RejectRepo{
		records: make(map[string]*domain.RejectedRecord),
	}
}

func (r *RejectRepo) Add(ctx context.Context, rec *domain.RejectedRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *RejectRepo) Get(ctx context.Context, id string) (*domain.RejectedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, storage.ErrRejectNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *RejectRepo) List(
	ctx context.Context,
	entity domain.Entity,
	limit int,
) ([]*domain.RejectedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.RejectedRecord, 0, len(r.records))
	for _, rec := range r.records {
		if entity != "" && rec.Entity != entity {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RejectRepo) Count(ctx context.Context, entity domain.Entity) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entity == "" {
		return len(r.records), nil
	}
	n := 0
	for _, rec := range r.records {
		if rec.Entity == entity {
			n++
		}
	}
	return n, nil
}

func (r *RejectRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return storage.ErrRejectNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *RejectRepo) Close() error { return nil }
