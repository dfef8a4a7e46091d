package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"caterflow/internal/commands"
	"caterflow/internal/domain/booking"
	"caterflow/internal/domain/event"
	"caterflow/internal/domain/payment"
	"caterflow/internal/events"
	"caterflow/internal/repository"
	caterflow_errors "caterflow/pkg/errors"
	"caterflow/pkg/logger"
)

type PaymentRepos struct {
	Bookings repository.BookingRepository
	Payments repository.PaymentRepository
	Events   repository.EventRepository
	Outbox   repository.OutboxRepository
	Ledger   repository.IdempotencyRepository
}

func paymentReposFor(db *gorm.DB) PaymentRepos {
	return PaymentRepos{
		Bookings: repository.NewBookingRepository(db),
		Payments: repository.NewPaymentRepository(db),
		Events:   repository.NewEventRepository(db),
		Outbox:   repository.NewOutboxRepository(db),
		Ledger:   repository.NewIdempotencyRepository(db),
	}
}

type PaymentService struct {
	db        *gorm.DB
	repos     PaymentRepos
	ledgerTTL time.Duration
	log       *logger.Logger
}

func NewPaymentService(db *gorm.DB, repos PaymentRepos, ledgerTTL time.Duration, log *logger.Logger) *PaymentService {
	return &PaymentService{db: db, repos: repos, ledgerTTL: ledgerTTL, log: log}
}

func (s *PaymentService) RegisterHandlers(bus *commands.Bus) {
	bus.Register(commands.TypeRecordPayment, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.RecordPaymentCommand)
		if !ok {
			return commands.Fail(caterflow_errors.ErrInvalidInput.Error()), nil
		}
		return s.HandleRecordPayment(ctx, typed)
	}))
}

func (s *PaymentService) HandleRecordPayment(ctx context.Context, cmd commands.RecordPaymentCommand) (commands.Result, error) {
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
	run := func(rs PaymentRepos) error {
		res, err := s.executeRecordPayment(ctx, cmd, rs)
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
			return run(paymentReposFor(tx))
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
			s.log.Errorf("record payment failed: %v", err)
		}
		return commands.Fail(genericFailureMessage), nil
	}
	return result, nil
}

type paymentRecordedPayload struct {
	PaymentID       string `json:"payment_id"`
	BookingID       string `json:"booking_id"`
	AmountCents     int64  `json:"amount_cents"`
	BalanceDueCents int64  `json:"balance_due_cents"`
	PaymentStatus   string `json:"payment_status"`
	Method          string `json:"method"`
}

func (s *PaymentService) executeRecordPayment(ctx context.Context, cmd commands.RecordPaymentCommand, rs PaymentRepos) (commands.Result, error) {
	// Lock the booking row so concurrent payments against it serialize and
	// the paid-sum ceiling check stays exact.
	b, err := rs.Bookings.GetByIDForUpdate(ctx, cmd.BookingID)
	if err != nil {
		if errors.Is(err, caterflow_errors.ErrNotFound) {
			return commands.Result{}, fmt.Errorf("booking %s: %w", cmd.BookingID, caterflow_errors.ErrNotFound)
		}
		return commands.Result{}, err
	}
	if b.Cancelled() {
		return commands.Result{}, fmt.Errorf("booking %s: %w", b.ID, caterflow_errors.ErrBookingCancelled)
	}

	paid, err := rs.Payments.SumForBooking(ctx, b.ID)
	if err != nil {
		return commands.Result{}, err
	}
	if paid+cmd.AmountCents > b.TotalDueCents {
		return commands.Result{}, fmt.Errorf("%w: %d cents paid, %d due, %d offered",
			caterflow_errors.ErrPaymentExceeds, paid, b.TotalDueCents, cmd.AmountCents)
	}

	method := cmd.Method
	if method == "" {
		method = "card"
	}
	p := &payment.Payment{
		ID:          uuid.New(),
		BookingID:   b.ID,
		AmountCents: cmd.AmountCents,
		Method:      method,
		Reference:   cmd.Reference,
		ReceivedAt:  time.Now().UTC(),
	}
	if err := rs.Payments.Create(ctx, p); err != nil {
		return commands.Result{}, err
	}

	cumulative := paid + cmd.AmountCents
	b.BalanceDueCents = b.TotalDueCents - cumulative
	switch {
	case b.BalanceDueCents == 0:
		b.PaymentStatus = booking.PaymentStatusPaid
	case b.DepositDueCents > 0 && cumulative >= b.DepositDueCents:
		b.PaymentStatus = booking.PaymentStatusDepositPaid
	}
	if err := rs.Bookings.Update(ctx, b); err != nil {
		return commands.Result{}, err
	}

	payload, err := json.Marshal(paymentRecordedPayload{
		PaymentID:       p.ID.String(),
		BookingID:       b.ID.String(),
		AmountCents:     p.AmountCents,
		BalanceDueCents: b.BalanceDueCents,
		PaymentStatus:   string(b.PaymentStatus),
		Method:          p.Method,
	})
	if err != nil {
		return commands.Result{}, err
	}

	ev := &event.DomainEvent{
		ID:            uuid.New(),
		AggregateType: events.AggregatePayment,
		AggregateID:   p.ID,
		EventType:     events.EventTypePaymentRecorded,
		Payload:       datatypes.JSON(payload),
	}
	if err := rs.Events.Append(ctx, []*event.DomainEvent{ev}); err != nil {
		return commands.Result{}, err
	}

	targets := events.ResolveTargets(ev.EventType, events.TargetFields{})
	if err := createOutboxEntries(ctx, rs.Outbox, []*event.DomainEvent{ev}, targets); err != nil {
		return commands.Result{}, err
	}

	data := map[string]any{
		"payment_id":        p.ID.String(),
		"booking_id":        b.ID.String(),
		"balance_due_cents": b.BalanceDueCents,
		"payment_status":    string(b.PaymentStatus),
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
