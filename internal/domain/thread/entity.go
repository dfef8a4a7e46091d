package thread

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Thread represents message_threads, one conversation per customer contact.
type Thread struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Contact        string    `gorm:"type:varchar(255);not null;index"`
	Subject        string    `gorm:"type:varchar(255)"`
	LastActivityAt time.Time `gorm:"not null;default:now();index"`
	Unread         bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null;default:now()"`
}

func (Thread) TableName() string {
	return "message_threads"
}

// Direction distinguishes inbound customer messages from outbound replies.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// Message represents thread_messages
type Message struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ThreadID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Direction  Direction      `gorm:"type:varchar(10);not null"`
	Body       string         `gorm:"type:text;not null"`
	Channel    string         `gorm:"type:varchar(20);not null;default:'sms'"`
	ExternalID sql.NullString `gorm:"type:varchar(255)"`
	ReceivedAt time.Time      `gorm:"not null;default:now()"`
}

func (Message) TableName() string {
	return "thread_messages"
}
