package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"caterflow/internal/domain/payment"
)

type PostgresPaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

func (r *PostgresPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PostgresPaymentRepository) SumForBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&payment.Payment{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("booking_id = ?", bookingID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
