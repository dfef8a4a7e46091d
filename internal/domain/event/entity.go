package event

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DomainEvent represents domain_events, the append-only audit/integration
// log. Rows are inserted inside the command transaction and never updated
// or deleted afterwards. OccurredAt is assigned by the store at append time;
// Position is a database-assigned sequence, so the order events were
// appended in (including within one command) is recoverable even though
// they share a timestamp.
type DomainEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Position      int64          `gorm:"autoIncrement;not null;uniqueIndex"`
	AggregateType string         `gorm:"type:varchar(50);not null;index:idx_domain_events_aggregate"`
	AggregateID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_domain_events_aggregate"`
	EventType     string         `gorm:"type:varchar(50);not null"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	OccurredAt    time.Time      `gorm:"not null"`
}

func (DomainEvent) TableName() string {
	return "domain_events"
}
