package httpdto

// RecordPaymentRequest is used for POST /v1/bookings/:id/payments
type RecordPaymentRequest struct {
	AmountCents    int64  `json:"amount_cents" binding:"required,gt=0"`
	Method         string `json:"method,omitempty"`
	Reference      string `json:"reference,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}
