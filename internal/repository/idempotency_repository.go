package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"caterflow/internal/domain/idempotency"
	caterflow_errors "caterflow/pkg/errors"
)

type PostgresIdempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &PostgresIdempotencyRepository{db: db}
}

func (r *PostgresIdempotencyRepository) Get(ctx context.Context, key string) (idempotency.Record, error) {
	var rec idempotency.Record
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return idempotency.Record{}, caterflow_errors.ErrNotFound
		}
		return idempotency.Record{}, err
	}
	// Expiry bounds storage, it does not permit replays of live keys; an
	// expired row simply stops guarding.
	if rec.Expired(time.Now().UTC()) {
		return idempotency.Record{}, caterflow_errors.ErrNotFound
	}
	return rec, nil
}

func (r *PostgresIdempotencyRepository) Save(ctx context.Context, rec *idempotency.Record) error {
	res := r.db.WithContext(ctx).Create(rec)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return caterflow_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresIdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&idempotency.Record{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
