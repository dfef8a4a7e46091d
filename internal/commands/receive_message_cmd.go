package commands

import (
	"errors"

	"github.com/google/uuid"
)

const TypeReceiveMessage = "message.receive"

// ReceiveMessageCommand records an inbound customer message. The thread is
// resolved by explicit id when set, otherwise by the most recent thread for
// the contact; a new thread is created when neither exists.
type ReceiveMessageCommand struct {
	ThreadID   uuid.UUID `json:"thread_id,omitempty"`
	Contact    string    `json:"contact,omitempty"`
	Body       string    `json:"body" validate:"required"`
	Channel    string    `json:"channel,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	Key        string    `json:"idempotency_key,omitempty"`
}

func (c ReceiveMessageCommand) CommandType() string { return TypeReceiveMessage }

func (c ReceiveMessageCommand) IdempotencyKey() string { return c.Key }

func (c ReceiveMessageCommand) Validate() error {
	if c.ThreadID == uuid.Nil && c.Contact == "" {
		return errors.New("thread_id or contact is required")
	}
	return validate.Struct(c)
}
