package customer

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer represents customers. Contact is stored normalized so the same
// person resolved by email or phone maps onto one aggregate.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Contact   string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Customer) TableName() string {
	return "customers"
}

// NormalizeContact lowercases and strips whitespace from a contact field so
// lookups are stable across request formatting.
func NormalizeContact(contact string) string {
	return strings.ToLower(strings.Join(strings.Fields(contact), ""))
}
