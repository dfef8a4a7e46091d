package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"caterflow/internal/domain/booking"
	"caterflow/internal/domain/customer"
	"caterflow/internal/domain/event"
	"caterflow/internal/domain/idempotency"
	"caterflow/internal/domain/outbox"
	"caterflow/internal/domain/payment"
	"caterflow/internal/domain/thread"
)

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (booking.Booking, error)
	// GetByIDForUpdate locks the booking row for the rest of the
	// transaction so concurrent payments against it serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (booking.Booking, error)
	Update(ctx context.Context, b booking.Booking) error
	// LockSlot serializes capacity checks for one (date, slot) key for the
	// duration of the transaction.
	LockSlot(ctx context.Context, eventDate, slot string) error
	SumGuestsForSlot(ctx context.Context, eventDate, slot string) (int64, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, c *customer.Customer) error
	GetByContact(ctx context.Context, contact string) (customer.Customer, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	SumForBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
}

type ThreadRepository interface {
	Create(ctx context.Context, t *thread.Thread) error
	GetByID(ctx context.Context, id uuid.UUID) (thread.Thread, error)
	GetLatestByContact(ctx context.Context, contact string) (thread.Thread, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time, unread bool) error
	CreateMessage(ctx context.Context, m *thread.Message) error
}

// EventRepository is the append-only event store. There is deliberately no
// update or delete operation.
type EventRepository interface {
	Append(ctx context.Context, events []*event.DomainEvent) error
}

type OutboxRepository interface {
	Create(ctx context.Context, e *outbox.Entry) error
	// ClaimPending locks a batch of pending entries for workerID, skipping
	// rows other workers hold and reclaiming locks older than staleBefore.
	ClaimPending(ctx context.Context, workerID string, limit int, staleBefore time.Time) ([]outbox.Entry, error)
	MarkDispatched(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	// Release returns a claimed entry to the pending pool after a delivery
	// failure, recording the attempt.
	Release(ctx context.Context, id uuid.UUID, errMsg string) error
}

type IdempotencyRepository interface {
	// Get returns the ledger record for key; expired records are reported
	// as not found.
	Get(ctx context.Context, key string) (idempotency.Record, error)
	// Save inserts a COMPLETED record. A concurrent insert for the same
	// key surfaces as ErrAlreadyExists.
	Save(ctx context.Context, r *idempotency.Record) error
	DeleteExpired(ctx context.Context) (int64, error)
}
