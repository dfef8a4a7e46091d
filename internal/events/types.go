package events

// Event type constants, format: domain.action

const (
	EventTypeBookingCreated  = "booking.created"
	EventTypePaymentRecorded = "payment.recorded"
	EventTypeMessageReceived = "message.received"
)

// Aggregate type constants
const (
	AggregateBooking = "booking"
	AggregatePayment = "payment"
	AggregateThread  = "thread"
)

// Integration target names the outbox fans out to
const (
	TargetEmail        = "email"
	TargetStripe       = "stripe"
	TargetAIProcessing = "ai_processing"
)
