package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"caterflow/internal/commands"
	"caterflow/internal/domain/booking"
	"caterflow/internal/domain/customer"
	"caterflow/internal/domain/event"
	"caterflow/internal/events"
	"caterflow/internal/repository"
	caterflow_errors "caterflow/pkg/errors"
	"caterflow/pkg/logger"
)

// BookingRepos bundles the repositories a booking command touches, so the
// transactional path can rebind all of them onto one tx handle.
type BookingRepos struct {
	Bookings  repository.BookingRepository
	Customers repository.CustomerRepository
	Events    repository.EventRepository
	Outbox    repository.OutboxRepository
	Ledger    repository.IdempotencyRepository
}

func bookingReposFor(db *gorm.DB) BookingRepos {
	return BookingRepos{
		Bookings:  repository.NewBookingRepository(db),
		Customers: repository.NewCustomerRepository(db),
		Events:    repository.NewEventRepository(db),
		Outbox:    repository.NewOutboxRepository(db),
		Ledger:    repository.NewIdempotencyRepository(db),
	}
}

type BookingService struct {
	db           *gorm.DB
	repos        BookingRepos
	slotCapacity int64
	ledgerTTL    time.Duration
	log          *logger.Logger
}

// NewBookingService builds the CreateBooking handler. A nil db executes
// commands directly against the injected repos without a transaction; that
// path exists for in-memory testing.
func NewBookingService(db *gorm.DB, repos BookingRepos, slotCapacity int64, ledgerTTL time.Duration, log *logger.Logger) *BookingService {
	return &BookingService{
		db:           db,
		repos:        repos,
		slotCapacity: slotCapacity,
		ledgerTTL:    ledgerTTL,
		log:          log,
	}
}

func (s *BookingService) RegisterHandlers(bus *commands.Bus) {
	bus.Register(commands.TypeCreateBooking, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.CreateBookingCommand)
		if !ok {
			return commands.Fail(caterflow_errors.ErrInvalidInput.Error()), nil
		}
		return s.HandleCreateBooking(ctx, typed)
	}))
}

func (s *BookingService) HandleCreateBooking(ctx context.Context, cmd commands.CreateBookingCommand) (commands.Result, error) {
	if err := cmd.Validate(); err != nil {
		return commands.Fail(err.Error()), nil
	}

	if key := cmd.IdempotencyKey(); key != "" {
		replay, err := checkLedger(ctx, s.repos.Ledger, key)
		if err != nil {
			return commands.Fail(genericFailureMessage), err
		}
		if replay != nil {
			return *replay, nil
		}
	}

	var result commands.Result
	run := func(rs BookingRepos) error {
		res, err := s.executeCreateBooking(ctx, cmd, rs)
		if err != nil {
			return err
		}
		result = res
		return nil
	}

	var err error
	if s.db == nil {
		err = run(s.repos)
	} else {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return run(bookingReposFor(tx))
		})
	}
	if err != nil {
		if errors.Is(err, caterflow_errors.ErrAlreadyExists) {
			return resolveDuplicate(ctx, s.repos.Ledger, cmd.IdempotencyKey()), nil
		}
		if isRejection(err) {
			return commands.Fail(err.Error()), nil
		}
		if s.log != nil {
			s.log.Errorf("create booking failed: %v", err)
		}
		return commands.Fail(genericFailureMessage), nil
	}
	return result, nil
}

// bookingCreatedPayload is the event payload, denormalized onto the outbox
// entry so consumers never re-read the aggregate.
type bookingCreatedPayload struct {
	BookingID          string `json:"booking_id"`
	CustomerID         string `json:"customer_id"`
	ConfirmationNumber string `json:"confirmation_number"`
	EventDate          string `json:"event_date"`
	Slot               string `json:"slot"`
	GuestCount         int    `json:"guest_count"`
	TotalDueCents      int64  `json:"total_due_cents"`
	DepositDueCents    int64  `json:"deposit_due_cents"`
	BalanceDueCents    int64  `json:"balance_due_cents"`
}

func (s *BookingService) executeCreateBooking(ctx context.Context, cmd commands.CreateBookingCommand, rs BookingRepos) (commands.Result, error) {
	// Serialize all check-and-insert work for this (date, slot) key. Two
	// concurrent bookings for a nearly full slot must not both pass the
	// capacity read.
	if err := rs.Bookings.LockSlot(ctx, cmd.EventDate, cmd.Slot); err != nil {
		return commands.Result{}, err
	}
	booked, err := rs.Bookings.SumGuestsForSlot(ctx, cmd.EventDate, cmd.Slot)
	if err != nil {
		return commands.Result{}, err
	}
	if booked+int64(cmd.GuestCount) > s.slotCapacity {
		return commands.Result{}, fmt.Errorf("%w: %d of %d seats already booked for %s %s",
			caterflow_errors.ErrCapacityExceeded, booked, s.slotCapacity, cmd.EventDate, cmd.Slot)
	}

	cust, err := s.resolveCustomer(ctx, rs, cmd.CustomerName, cmd.Contact)
	if err != nil {
		return commands.Result{}, err
	}

	b := &booking.Booking{
		ID:              uuid.New(),
		CustomerID:      cust.ID,
		EventDate:       cmd.EventDate,
		Slot:            cmd.Slot,
		GuestCount:      cmd.GuestCount,
		TotalDueCents:   cmd.TotalDueCents,
		DepositDueCents: cmd.DepositDueCents,
		BalanceDueCents: cmd.TotalDueCents - cmd.DepositDueCents,
		PaymentStatus:   booking.PaymentStatusUnpaid,
		Status:          booking.StatusConfirmed,
		Notes:           cmd.Notes,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	b.ConfirmationNumber = confirmationNumber(b.ID)
	if err := rs.Bookings.Create(ctx, b); err != nil {
		// A duplicate here is a confirmation-number collision, not an
		// idempotency race; do not let it masquerade as one.
		if errors.Is(err, caterflow_errors.ErrAlreadyExists) {
			return commands.Result{}, fmt.Errorf("booking insert conflict: %v", err)
		}
		return commands.Result{}, err
	}

	payload, err := json.Marshal(bookingCreatedPayload{
		BookingID:          b.ID.String(),
		CustomerID:         cust.ID.String(),
		ConfirmationNumber: b.ConfirmationNumber,
		EventDate:          b.EventDate,
		Slot:               b.Slot,
		GuestCount:         b.GuestCount,
		TotalDueCents:      b.TotalDueCents,
		DepositDueCents:    b.DepositDueCents,
		BalanceDueCents:    b.BalanceDueCents,
	})
	if err != nil {
		return commands.Result{}, err
	}

	ev := &event.DomainEvent{
		ID:            uuid.New(),
		AggregateType: events.AggregateBooking,
		AggregateID:   b.ID,
		EventType:     events.EventTypeBookingCreated,
		Payload:       datatypes.JSON(payload),
	}
	if err := rs.Events.Append(ctx, []*event.DomainEvent{ev}); err != nil {
		return commands.Result{}, err
	}

	targets := events.ResolveTargets(ev.EventType, events.TargetFields{DepositDueCents: b.DepositDueCents})
	if err := createOutboxEntries(ctx, rs.Outbox, []*event.DomainEvent{ev}, targets); err != nil {
		return commands.Result{}, err
	}

	data := map[string]any{
		"booking_id":          b.ID.String(),
		"customer_id":         cust.ID.String(),
		"confirmation_number": b.ConfirmationNumber,
		"balance_due_cents":   b.BalanceDueCents,
	}
	if key := cmd.IdempotencyKey(); key != "" {
		rec, err := newCompletedRecord(cmd, data, s.ledgerTTL)
		if err != nil {
			return commands.Result{}, err
		}
		if err := rs.Ledger.Save(ctx, rec); err != nil {
			return commands.Result{}, err
		}
	}
	return commands.Succeed(data, []event.DomainEvent{*ev}), nil
}

// resolveCustomer finds the customer aggregate for a normalized contact,
// creating it when absent. A creation race falls back to the winner's row.
func (s *BookingService) resolveCustomer(ctx context.Context, rs BookingRepos, name, contact string) (customer.Customer, error) {
	normalized := customer.NormalizeContact(contact)
	cust, err := rs.Customers.GetByContact(ctx, normalized)
	if err == nil {
		return cust, nil
	}
	if !errors.Is(err, caterflow_errors.ErrNotFound) {
		return customer.Customer{}, err
	}
	created := &customer.Customer{
		ID:        uuid.New(),
		Name:      name,
		Contact:   normalized,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := rs.Customers.Create(ctx, created); err != nil {
		if errors.Is(err, caterflow_errors.ErrAlreadyExists) {
			return rs.Customers.GetByContact(ctx, normalized)
		}
		return customer.Customer{}, err
	}
	return *created, nil
}

func confirmationNumber(id uuid.UUID) string {
	return "CB-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}
