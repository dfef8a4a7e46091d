package commands

import (
	"errors"

	"github.com/google/uuid"
)

const TypeRecordPayment = "payment.record"

// RecordPaymentCommand records a payment received against a booking.
type RecordPaymentCommand struct {
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents" validate:"required,gt=0"`
	Method      string    `json:"method,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	Key         string    `json:"idempotency_key,omitempty"`
}

func (c RecordPaymentCommand) CommandType() string { return TypeRecordPayment }

func (c RecordPaymentCommand) IdempotencyKey() string { return c.Key }

func (c RecordPaymentCommand) Validate() error {
	if c.BookingID == uuid.Nil {
		return errors.New("booking_id is required")
	}
	return validate.Struct(c)
}
