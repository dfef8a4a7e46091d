package booking

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks how much of the booking total has been collected
type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "UNPAID"
	PaymentStatusDepositPaid PaymentStatus = "DEPOSIT_PAID"
	PaymentStatusPaid        PaymentStatus = "PAID"
)

// Status is the booking lifecycle state
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Booking represents bookings. All monetary amounts are integer cents.
type Booking struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CustomerID         uuid.UUID     `gorm:"type:uuid;not null;index"`
	EventDate          string        `gorm:"type:varchar(10);not null;index:idx_bookings_slot"`
	Slot               string        `gorm:"type:varchar(10);not null;index:idx_bookings_slot"`
	GuestCount         int           `gorm:"not null"`
	TotalDueCents      int64         `gorm:"not null"`
	DepositDueCents    int64         `gorm:"not null;default:0"`
	BalanceDueCents    int64         `gorm:"not null"`
	PaymentStatus      PaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID'"`
	Status             Status        `gorm:"type:varchar(20);not null;default:'CONFIRMED'"`
	ConfirmationNumber string        `gorm:"type:varchar(20);not null;uniqueIndex"`
	Notes              string        `gorm:"type:text"`
	CreatedAt          time.Time     `gorm:"not null;default:now()"`
	UpdatedAt          time.Time     `gorm:"not null;default:now()"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Cancelled reports whether the booking can no longer accept payments.
func (b *Booking) Cancelled() bool {
	return b.Status == StatusCancelled
}
