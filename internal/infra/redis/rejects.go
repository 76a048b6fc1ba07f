package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/infra/storage"
)

// DefaultRejectTTL is how long a rejected record is kept.
const DefaultRejectTTL = 7 * 24 * time.Hour

// RejectRepo implements storage.RejectRepository using Redis.
//
// Records live under rejected:<id>; the sorted sets rejects:all and
// rejects:<entity> index them by creation time.
type RejectRepo struct {
	client *Client
	ttl    time.Duration
}

// NewRejectRepo creates a new Redis-backed reject repository.
func NewRejectRepo(client *Client, ttl time.Duration) *RejectRepo {
	if ttl <= 0 {
		ttl = DefaultRejectTTL
	}
	return &RejectRepo{client: client, ttl: ttl}
}

// Key helpers
func recordKey(id string) string {
	return fmt.Sprintf("rejected:%s", id)
}

func indexKey(entity domain.Entity) string {
	if entity == "" {
		return "rejects:all"
	}
	return fmt.Sprintf("rejects:%s", entity)
}

// Add stores a rejected record and indexes it.
func (r *RejectRepo) Add(ctx context.Context, rec *domain.RejectedRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal rejected record: %w", err)
	}

	score := float64(rec.CreatedAt.UnixNano())
	cutoff := r.cutoff()
	pipe := r.client.rdb.TxPipeline()
	pipe.Set(ctx, recordKey(rec.ID), data, r.ttl)
	for _, key := range []string{indexKey(""), indexKey(rec.Entity)} {
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff)
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: rec.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store rejected record: %w", err)
	}
	return nil
}

// Get retrieves a rejected record by id.
func (r *RejectRepo) Get(ctx context.Context, id string) (*domain.RejectedRecord, error) {
	data, err := r.client.rdb.Get(ctx, recordKey(id)).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrRejectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rejected record: %w", err)
	}

	var rec domain.RejectedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rejected record: %w", err)
	}
	return &rec, nil
}

// List returns the newest records first. Index entries older than the TTL,
// or whose record is gone, are pruned from every index on the way.
func (r *RejectRepo) List(
	ctx context.Context,
	entity domain.Entity,
	limit int,
) ([]*domain.RejectedRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	if err := r.pruneExpired(ctx, indexKey(entity)); err != nil {
		return nil, err
	}

	ids, err := r.client.rdb.ZRevRange(ctx, indexKey(entity), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	recs := make([]*domain.RejectedRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err == storage.ErrRejectNotFound {
			r.unindex(ctx, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Count returns the number of live records. Entries older than the TTL are
// pruned first so expired records are not counted.
func (r *RejectRepo) Count(ctx context.Context, entity domain.Entity) (int, error) {
	if err := r.pruneExpired(ctx, indexKey(entity)); err != nil {
		return 0, err
	}
	count, err := r.client.rdb.ZCard(ctx, indexKey(entity)).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}

// Delete removes a record and its index entries.
func (r *RejectRepo) Delete(ctx context.Context, id string) error {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.rdb.TxPipeline()
	pipe.Del(ctx, recordKey(id))
	pipe.ZRem(ctx, indexKey(""), id)
	pipe.ZRem(ctx, indexKey(rec.Entity), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete rejected record: %w", err)
	}
	return nil
}

// cutoff is the zset score below which a record's key has expired.
func (r *RejectRepo) cutoff() string {
	return strconv.FormatInt(time.Now().Add(-r.ttl).UnixNano(), 10)
}

func (r *RejectRepo) pruneExpired(ctx context.Context, key string) error {
	if err := r.client.rdb.ZRemRangeByScore(ctx, key, "-inf", "("+r.cutoff()).Err(); err != nil {
		return fmt.Errorf("failed to prune %s: %w", key, err)
	}
	return nil
}

// unindex drops id from the global index and every entity index.
func (r *RejectRepo) unindex(ctx context.Context, id string) {
	pipe := r.client.rdb.Pipeline()
	pipe.ZRem(ctx, indexKey(""), id)
	for _, e := range []domain.Entity{domain.EntityListing, domain.EntityStore, domain.EntityBook} {
		pipe.ZRem(ctx, indexKey(e), id)
	}
	_, _ = pipe.Exec(ctx)
}

// Close closes the Redis connection.
func (r *RejectRepo) Close() error {
	return r.client.Close()
}
