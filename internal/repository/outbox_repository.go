package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"caterflow/internal/domain/outbox"
	caterflow_errors "caterflow/pkg/errors"
)

type PostgresOutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

func (r *PostgresOutboxRepository) Create(ctx context.Context, e *outbox.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ClaimPending selects a batch of pending entries with FOR UPDATE SKIP
// LOCKED and stamps them with the worker's lock. Entries whose lock is
// older than staleBefore are treated as abandoned by a crashed worker and
// reclaimed.
func (r *PostgresOutboxRepository) ClaimPending(ctx context.Context, workerID string, limit int, staleBefore time.Time) ([]outbox.Entry, error) {
	var claimed []outbox.Entry
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("status = ?", outbox.StatusPending).
			Where("locked_at IS NULL OR locked_at <= ?", staleBefore).
			Order("created_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(claimed))
		for i := range claimed {
			ids[i] = claimed[i].ID
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &workerID
		}
		return tx.Model(&outbox.Entry{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"locked_at": now,
				"locked_by": workerID,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *PostgresOutboxRepository) MarkDispatched(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&outbox.Entry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        outbox.StatusDispatched,
			"dispatched_at": now,
			"last_error":    "",
			"locked_at":     nil,
			"locked_by":     nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return caterflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	res := r.db.WithContext(ctx).
		Model(&outbox.Entry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     outbox.StatusFailed,
			"last_error": errMsg,
			"attempts":   gorm.Expr("attempts + 1"),
			"locked_at":  nil,
			"locked_by":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return caterflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresOutboxRepository) Release(ctx context.Context, id uuid.UUID, errMsg string) error {
	res := r.db.WithContext(ctx).
		Model(&outbox.Entry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_error": errMsg,
			"attempts":   gorm.Expr("attempts + 1"),
			"locked_at":  nil,
			"locked_by":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return caterflow_errors.ErrNotFound
	}
	return nil
}
