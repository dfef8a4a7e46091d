package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"caterflow/internal/domain/booking"
	caterflow_errors "caterflow/pkg/errors"
)

type PostgresBookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &PostgresBookingRepository{db: db}
}

func (r *PostgresBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	res := r.db.WithContext(ctx).Create(b)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return caterflow_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (booking.Booking, error) {
	var b booking.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Booking{}, caterflow_errors.ErrNotFound
		}
		return booking.Booking{}, err
	}
	return b, nil
}

func (r *PostgresBookingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (booking.Booking, error) {
	var b booking.Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Booking{}, caterflow_errors.ErrNotFound
		}
		return booking.Booking{}, err
	}
	return b, nil
}

func (r *PostgresBookingRepository) Update(ctx context.Context, b booking.Booking) error {
	res := r.db.WithContext(ctx).
		Model(&booking.Booking{}).
		Where("id = ?", b.ID).
		Updates(map[string]interface{}{
			"balance_due_cents": b.BalanceDueCents,
			"payment_status":    b.PaymentStatus,
			"status":            b.Status,
			"updated_at":        gorm.Expr("now()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return caterflow_errors.ErrNotFound
	}
	return nil
}

// LockSlot takes a transaction-scoped advisory lock on the (date, slot)
// key. A plain FOR UPDATE over the slot's rows cannot stop two inserts
// racing past the capacity read, since neither sees the other's phantom
// row; the advisory lock serializes the whole check-and-insert.
func (r *PostgresBookingRepository) LockSlot(ctx context.Context, eventDate, slot string) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(? || '|' || ?))", eventDate, slot).Error
}

func (r *PostgresBookingRepository) SumGuestsForSlot(ctx context.Context, eventDate, slot string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&booking.Booking{}).
		Select("COALESCE(SUM(guest_count), 0)").
		Where("event_date = ? AND slot = ? AND status = ?", eventDate, slot, booking.StatusConfirmed).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
