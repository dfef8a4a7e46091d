package idempotency

import (
	"time"

	"gorm.io/datatypes"
)

// Status of a ledger record. Handlers only ever insert COMPLETED rows: a
// transient failure leaves no trace so the same key can be retried, and a
// concurrent duplicate is detected by the primary-key insert conflict
// rather than an explicit PENDING marker. FAILED is understood by reads
// (it hard-stops a key) but no code path writes it.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Record represents idempotency_records, the dedup ledger. One row per
// client-supplied key; once COMPLETED the row is immutable and its result
// is authoritative for replays until ExpiresAt.
type Record struct {
	Key         string         `gorm:"type:varchar(255);primaryKey"`
	CommandType string         `gorm:"type:varchar(50);not null"`
	Status      Status         `gorm:"type:varchar(20);not null"`
	Result      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null;default:now()"`
	CompletedAt *time.Time
	ExpiresAt   time.Time `gorm:"not null;index"`
}

func (Record) TableName() string {
	return "idempotency_records"
}

// Expired reports whether the record no longer guards its key. Expiry only
// bounds storage growth; callers treat an expired row as absent.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
