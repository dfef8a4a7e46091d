package httpdto

// CreateBookingRequest is used for POST /v1/bookings
type CreateBookingRequest struct {
	CustomerName    string `json:"customer_name" binding:"required"`
	Contact         string `json:"contact" binding:"required"`
	EventDate       string `json:"event_date" binding:"required"`
	Slot            string `json:"slot" binding:"required"`
	GuestCount      int    `json:"guest_count" binding:"required,gt=0"`
	TotalDueCents   int64  `json:"total_due_cents" binding:"gte=0"`
	DepositDueCents int64  `json:"deposit_due_cents" binding:"gte=0"`
	Notes           string `json:"notes,omitempty"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"`
}
