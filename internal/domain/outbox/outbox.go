package outbox

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Status represents the processing state of an outbox entry
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusDispatched Status = "DISPATCHED"
	StatusFailed     Status = "FAILED"
)

// Entry stores integration tasks created in the same transaction as the
// business write. The event payload is denormalized onto the entry so the
// processor never re-reads the aggregate. Status transitions belong to the
// outbox processor exclusively; command handlers only insert PENDING rows.
type Entry struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	EventType     string         `gorm:"type:varchar(50);not null"`
	AggregateType string         `gorm:"type:varchar(50);not null"`
	AggregateID   uuid.UUID      `gorm:"type:uuid;not null"`
	EventData     datatypes.JSON `gorm:"type:jsonb;not null"`
	Targets       datatypes.JSON `gorm:"type:jsonb;not null"`
	Status        Status         `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Attempts      int            `gorm:"not null;default:0"`
	LastError     string         `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"not null;default:now()"`
	DispatchedAt  *time.Time
	LockedAt      *time.Time
	LockedBy      *string `gorm:"type:varchar(64)"`
}

func (Entry) TableName() string {
	return "outbox_entries"
}
