package payment

import (
	"time"

	"github.com/google/uuid"
)

// Payment represents payments. Amounts are integer cents.
type Payment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	BookingID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountCents int64     `gorm:"not null"`
	Method      string    `gorm:"type:varchar(30);not null;default:'card'"`
	Reference   string    `gorm:"type:varchar(255)"`
	ReceivedAt  time.Time `gorm:"not null;default:now()"`
}

func (Payment) TableName() string {
	return "payments"
}
