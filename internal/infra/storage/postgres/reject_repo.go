package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/infra/storage"
)

// RejectRepo implements storage.RejectRepository using PostgreSQL.
type RejectRepo struct {
	db *DB
}

// NewRejectRepo creates a new PostgreSQL reject repository.
func NewRejectRepo(db *DB) *RejectRepo {
	return &RejectRepo{db: db}
}

type rejectRow struct {
	ID        string    `db:"id"`
	Entity    string    `db:"entity"`
	Source    string    `db:"source"`
	Kind      string    `db:"kind"`
	Message   string    `db:"message"`
	Field     string    `db:"field"`
	Value     []byte    `db:"value"`
	Context   []byte    `db:"context"`
	Payload   []byte    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

const selectColumns = `id, entity, source, kind, message, field, value, context, payload, created_at`

// Add inserts a rejected record.
func (r *RejectRepo) Add(ctx context.Context, rec *domain.RejectedRecord) error {
	value, err := jsonParam(rec.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	recCtx, err := jsonParam(rec.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	var payload *string
	if len(rec.Payload) > 0 {
		s := string(rec.Payload)
		payload = &s
	}

	query := `
		INSERT INTO rejected_records (id, entity, source, kind, message, field, value, context, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.Entity),
		rec.Source,
		rec.Kind,
		rec.Message,
		rec.Field,
		value,
		recCtx,
		payload,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add rejected record: %w", err)
	}
	return nil
}

// Get retrieves a rejected record by id.
func (r *RejectRepo) Get(ctx context.Context, id string) (*domain.RejectedRecord, error) {
	var row rejectRow
	err := r.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM rejected_records WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRejectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rejected record: %w", err)
	}
	return row.toDomain()
}

// List returns the newest records first.
func (r *RejectRepo) List(
	ctx context.Context,
	entity domain.Entity,
	limit int,
) ([]*domain.RejectedRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM rejected_records
		WHERE ($1::text = '' OR entity = $1::text)
		ORDER BY created_at DESC, id DESC`
	args := []any{string(entity)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []rejectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list rejected records: %w", err)
	}

	recs := make([]*domain.RejectedRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Count returns the number of rejected records.
func (r *RejectRepo) Count(ctx context.Context, entity domain.Entity) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM rejected_records WHERE ($1::text = '' OR entity = $1::text)`, string(entity))
	if err != nil {
		return 0, fmt.Errorf("failed to count rejected records: %w", err)
	}
	return count, nil
}

// Delete removes a rejected record.
func (r *RejectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rejected_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rejected record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete rejected record: %w", err)
	}
	if n == 0 {
		return storage.ErrRejectNotFound
	}
	return nil
}

// Close closes the database connection.
func (r *RejectRepo) Close() error {
	return r.db.Close()
}

// jsonParam encodes v for a jsonb parameter. nil stays SQL NULL.
func jsonParam(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func (row rejectRow) toDomain() (*domain.RejectedRecord, error) {
	rec := &domain.RejectedRecord{
		ID:        row.ID,
		Entity:    domain.Entity(row.Entity),
		Source:    row.Source,
		Kind:      row.Kind,
		Message:   row.Message,
		Field:     row.Field,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Value) > 0 {
		if err := json.Unmarshal(row.Value, &rec.Value); err != nil {
			return nil, fmt.Errorf("failed to decode value: %w", err)
		}
	}
	if len(row.Context) > 0 {
		if err := json.Unmarshal(row.Context, &rec.Context); err != nil {
			return nil, fmt.Errorf("failed to decode context: %w", err)
		}
	}
	if len(row.Payload) > 0 {
		rec.Payload = json.RawMessage(row.Payload)
	}
	return rec, nil
}
