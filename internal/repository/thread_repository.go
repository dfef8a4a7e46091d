package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"caterflow/internal/domain/thread"
	caterflow_errors "caterflow/pkg/errors"
)

type PostgresThreadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &PostgresThreadRepository{db: db}
}

func (r *PostgresThreadRepository) Create(ctx context.Context, t *thread.Thread) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *PostgresThreadRepository) GetByID(ctx context.Context, id uuid.UUID) (thread.Thread, error) {
	var t thread.Thread
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return thread.Thread{}, caterflow_errors.ErrNotFound
		}
		return thread.Thread{}, err
	}
	return t, nil
}

func (r *PostgresThreadRepository) GetLatestByContact(ctx context.Context, contact string) (thread.Thread, error) {
	var t thread.Thread
	err := r.db.WithContext(ctx).
		Where("contact = ?", contact).
		Order("last_activity_at DESC").
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return thread.Thread{}, caterflow_errors.ErrNotFound
		}
		return thread.Thread{}, err
	}
	return t, nil
}

func (r *PostgresThreadRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time, unread bool) error {
	res := r.db.WithContext(ctx).
		Model(&thread.Thread{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_activity_at": at,
			"unread":           unread,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return caterflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresThreadRepository) CreateMessage(ctx context.Context, m *thread.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}
