package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"caterflow/internal/domain/event"
)

type PostgresEventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &PostgresEventRepository{db: db}
}

// Append persists events one row at a time, in slice order, assigning
// OccurredAt at append time; the database assigns each row's Position, so
// slice order is durable. Any failure aborts the enclosing transaction, so
// a partial event log for a command never survives.
func (r *PostgresEventRepository) Append(ctx context.Context, events []*event.DomainEvent) error {
	now := time.Now().UTC()
	for _, e := range events {
		e.OccurredAt = now
		if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
			return err
		}
	}
	return nil
}
