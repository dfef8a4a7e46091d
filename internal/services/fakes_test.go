package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"caterflow/internal/domain/booking"
	"caterflow/internal/domain/customer"
	"caterflow/internal/domain/event"
	"caterflow/internal/domain/idempotency"
	"caterflow/internal/domain/outbox"
	"caterflow/internal/domain/payment"
	"caterflow/internal/domain/thread"
	caterflow_errors "caterflow/pkg/errors"
)

// In-memory repositories for driving the services through their direct
// (nil-db) execution path.

type fakeBookingRepo struct {
	bookings  map[uuid.UUID]booking.Booking
	lockCalls int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]booking.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, b *booking.Booking) error {
	r.bookings[b.ID] = *b
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (booking.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return booking.Booking{}, caterflow_errors.ErrNotFound
	}
	return b, nil
}

func (r *fakeBookingRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (booking.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBookingRepo) Update(_ context.Context, b booking.Booking) error {
	if _, ok := r.bookings[b.ID]; !ok {
		return caterflow_errors.ErrNotFound
	}
	r.bookings[b.ID] = b
	return nil
}

func (r *fakeBookingRepo) LockSlot(_ context.Context, _, _ string) error {
	r.lockCalls++
	return nil
}

func (r *fakeBookingRepo) SumGuestsForSlot(_ context.Context, eventDate, slot string) (int64, error) {
	var total int64
	for _, b := range r.bookings {
		if b.EventDate == eventDate && b.Slot == slot && b.Status == booking.StatusConfirmed {
			total += int64(b.GuestCount)
		}
	}
	return total, nil
}

type fakeCustomerRepo struct {
	byContact map[string]customer.Customer
	// raceWinner, when set, simulates a concurrent insert committing between
	// the lookup and the create: Create installs the winner's row and
	// reports the unique-key conflict.
	raceWinner *customer.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{byContact: make(map[string]customer.Customer)}
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	if r.raceWinner != nil {
		r.byContact[r.raceWinner.Contact] = *r.raceWinner
		r.raceWinner = nil
		return caterflow_errors.ErrAlreadyExists
	}
	if _, ok := r.byContact[c.Contact]; ok {
		return caterflow_errors.ErrAlreadyExists
	}
	r.byContact[c.Contact] = *c
	return nil
}

func (r *fakeCustomerRepo) GetByContact(_ context.Context, contact string) (customer.Customer, error) {
	c, ok := r.byContact[contact]
	if !ok {
		return customer.Customer{}, caterflow_errors.ErrNotFound
	}
	return c, nil
}

type fakePaymentRepo struct {
	payments []payment.Payment
}

func (r *fakePaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakePaymentRepo) SumForBooking(_ context.Context, bookingID uuid.UUID) (int64, error) {
	var total int64
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			total += p.AmountCents
		}
	}
	return total, nil
}

type fakeThreadRepo struct {
	threads  map[uuid.UUID]thread.Thread
	messages []thread.Message
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{threads: make(map[uuid.UUID]thread.Thread)}
}

func (r *fakeThreadRepo) Create(_ context.Context, t *thread.Thread) error {
	r.threads[t.ID] = *t
	return nil
}

func (r *fakeThreadRepo) GetByID(_ context.Context, id uuid.UUID) (thread.Thread, error) {
	t, ok := r.threads[id]
	if !ok {
		return thread.Thread{}, caterflow_errors.ErrNotFound
	}
	return t, nil
}

func (r *fakeThreadRepo) GetLatestByContact(_ context.Context, contact string) (thread.Thread, error) {
	var matches []thread.Thread
	for _, t := range r.threads {
		if t.Contact == contact {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return thread.Thread{}, caterflow_errors.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].LastActivityAt.After(matches[j].LastActivityAt)
	})
	return matches[0], nil
}

func (r *fakeThreadRepo) Touch(_ context.Context, id uuid.UUID, at time.Time, unread bool) error {
	t, ok := r.threads[id]
	if !ok {
		return caterflow_errors.ErrNotFound
	}
	t.LastActivityAt = at
	t.Unread = unread
	r.threads[id] = t
	return nil
}

func (r *fakeThreadRepo) CreateMessage(_ context.Context, m *thread.Message) error {
	r.messages = append(r.messages, *m)
	return nil
}

type fakeEventRepo struct {
	appended []event.DomainEvent
	position int64
}

func (r *fakeEventRepo) Append(_ context.Context, events []*event.DomainEvent) error {
	for _, ev := range events {
		r.position++
		ev.Position = r.position
		ev.OccurredAt = time.Now().UTC()
		r.appended = append(r.appended, *ev)
	}
	return nil
}

type fakeOutboxRepo struct {
	entries []outbox.Entry
}

func (r *fakeOutboxRepo) Create(_ context.Context, e *outbox.Entry) error {
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeOutboxRepo) ClaimPending(_ context.Context, _ string, _ int, _ time.Time) ([]outbox.Entry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkDispatched(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (r *fakeOutboxRepo) Release(_ context.Context, _ uuid.UUID, _ string) error { return nil }

type fakeLedgerRepo struct {
	records map[string]idempotency.Record
	saves   int
	// saveErr, when set, is returned by the next Save call.
	saveErr error
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{records: make(map[string]idempotency.Record)}
}

func (r *fakeLedgerRepo) Get(_ context.Context, key string) (idempotency.Record, error) {
	rec, ok := r.records[key]
	if !ok || rec.Expired(time.Now().UTC()) {
		return idempotency.Record{}, caterflow_errors.ErrNotFound
	}
	return rec, nil
}

func (r *fakeLedgerRepo) Save(_ context.Context, rec *idempotency.Record) error {
	if r.saveErr != nil {
		err := r.saveErr
		r.saveErr = nil
		return err
	}
	if _, ok := r.records[rec.Key]; ok {
		return caterflow_errors.ErrAlreadyExists
	}
	r.records[rec.Key] = *rec
	r.saves++
	return nil
}

func (r *fakeLedgerRepo) DeleteExpired(_ context.Context) (int64, error) {
	now := time.Now().UTC()
	var deleted int64
	for key, rec := range r.records {
		if rec.Expired(now) {
			delete(r.records, key)
			deleted++
		}
	}
	return deleted, nil
}
