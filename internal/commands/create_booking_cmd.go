package commands

import (
	"errors"
)

const TypeCreateBooking = "booking.create"

// CreateBookingCommand books a time slot for a party. Monetary fields are
// integer cents.
type CreateBookingCommand struct {
	CustomerName    string `json:"customer_name" validate:"required"`
	Contact         string `json:"contact" validate:"required"`
	EventDate       string `json:"event_date" validate:"required,datetime=2006-01-02"`
	Slot            string `json:"slot" validate:"required"`
	GuestCount      int    `json:"guest_count" validate:"required,gt=0"`
	TotalDueCents   int64  `json:"total_due_cents" validate:"gte=0"`
	DepositDueCents int64  `json:"deposit_due_cents" validate:"gte=0"`
	Notes           string `json:"notes,omitempty"`
	Key             string `json:"idempotency_key,omitempty"`
}

func (c CreateBookingCommand) CommandType() string { return TypeCreateBooking }

func (c CreateBookingCommand) IdempotencyKey() string { return c.Key }

func (c CreateBookingCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.DepositDueCents > c.TotalDueCents {
		return errors.New("deposit_due_cents cannot exceed total_due_cents")
	}
	return nil
}
