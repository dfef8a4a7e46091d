package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"caterflow/internal/commands"
	"caterflow/internal/domain/booking"
	"caterflow/internal/events"
	caterflow_errors "caterflow/pkg/errors"
)

type paymentFixture struct {
	svc      *PaymentService
	bookings *fakeBookingRepo
	payments *fakePaymentRepo
	events   *fakeEventRepo
	outbox   *fakeOutboxRepo
	ledger   *fakeLedgerRepo
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		bookings: newFakeBookingRepo(),
		payments: &fakePaymentRepo{},
		events:   &fakeEventRepo{},
		outbox:   &fakeOutboxRepo{},
		ledger:   newFakeLedgerRepo(),
	}
	f.svc = NewPaymentService(nil, PaymentRepos{
		Bookings: f.bookings,
		Payments: f.payments,
		Events:   f.events,
		Outbox:   f.outbox,
		Ledger:   f.ledger,
	}, time.Hour, nil)
	return f
}

func (f *paymentFixture) seedBooking(total, deposit int64) booking.Booking {
	b := booking.Booking{
		ID:              uuid.New(),
		CustomerID:      uuid.New(),
		EventDate:       "2026-09-12",
		Slot:            "evening",
		GuestCount:      40,
		TotalDueCents:   total,
		DepositDueCents: deposit,
		BalanceDueCents: total - deposit,
		PaymentStatus:   booking.PaymentStatusUnpaid,
		Status:          booking.StatusConfirmed,
	}
	f.bookings.bookings[b.ID] = b
	return b
}

func TestRecordPaymentDeposit(t *testing.T) {
	f := newPaymentFixture()
	b := f.seedBooking(55000, 10000)

	cmd := commands.RecordPaymentCommand{
		BookingID:   b.ID,
		AmountCents: 10000,
		Method:      "card",
		Key:         "pay-1",
	}
	res, err := f.svc.HandleRecordPayment(context.Background(), cmd)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}

	updated := f.bookings.bookings[b.ID]
	if updated.BalanceDueCents != 45000 {
		t.Fatalf("balance = %d, want 45000", updated.BalanceDueCents)
	}
	if updated.PaymentStatus != booking.PaymentStatusDepositPaid {
		t.Fatalf("payment status = %s, want DEPOSIT_PAID", updated.PaymentStatus)
	}

	if len(f.events.appended) != 1 || f.events.appended[0].EventType != events.EventTypePaymentRecorded {
		t.Fatalf("unexpected events: %+v", f.events.appended)
	}
	var targets []string
	if err := json.Unmarshal(f.outbox.entries[0].Targets, &targets); err != nil {
		t.Fatalf("targets: %v", err)
	}
	if len(targets) != 1 || targets[0] != events.TargetEmail {
		t.Fatalf("targets = %v, want [email]", targets)
	}
	if f.ledger.saves != 1 {
		t.Fatalf("ledger saves = %d, want 1", f.ledger.saves)
	}
}

func TestRecordPaymentSettlesBooking(t *testing.T) {
	f := newPaymentFixture()
	b := f.seedBooking(55000, 10000)

	for i, amount := range []int64{10000, 45000} {
		cmd := commands.RecordPaymentCommand{BookingID: b.ID, AmountCents: amount, Key: fmt.Sprintf("pay-%d", i)}
		res, err := f.svc.HandleRecordPayment(context.Background(), cmd)
		if err != nil || !res.Success {
			t.Fatalf("payment %d: %v / %q", i, err, res.Error)
		}
	}

	updated := f.bookings.bookings[b.ID]
	if updated.BalanceDueCents != 0 {
		t.Fatalf("balance = %d, want 0", updated.BalanceDueCents)
	}
	if updated.PaymentStatus != booking.PaymentStatusPaid {
		t.Fatalf("payment status = %s, want PAID", updated.PaymentStatus)
	}
}

func TestRecordPaymentRejectsOverpayment(t *testing.T) {
	f := newPaymentFixture()
	b := f.seedBooking(55000, 10000)

	first := commands.RecordPaymentCommand{BookingID: b.ID, AmountCents: 50000, Key: "pay-1"}
	if res, err := f.svc.HandleRecordPayment(context.Background(), first); err != nil || !res.Success {
		t.Fatalf("first payment: %v / %q", err, res.Error)
	}

	second := commands.RecordPaymentCommand{BookingID: b.ID, AmountCents: 10000, Key: "pay-2"}
	res, err := f.svc.HandleRecordPayment(context.Background(), second)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success {
		t.Fatal("expected overpayment rejection")
	}
	if !strings.Contains(res.Error, "exceed remaining balance") {
		t.Fatalf("error = %q", res.Error)
	}

	// The rejection changed nothing and left the key retryable.
	if len(f.payments.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(f.payments.payments))
	}
	if _, ok := f.ledger.records["pay-2"]; ok {
		t.Fatal("rejected payment must not write a ledger record")
	}
}

func TestRecordPaymentRejectsCancelledBooking(t *testing.T) {
	f := newPaymentFixture()
	b := f.seedBooking(55000, 10000)
	b.Status = booking.StatusCancelled
	f.bookings.bookings[b.ID] = b

	cmd := commands.RecordPaymentCommand{BookingID: b.ID, AmountCents: 10000, Key: "pay-1"}
	res, err := f.svc.HandleRecordPayment(context.Background(), cmd)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(res.Error, caterflow_errors.ErrBookingCancelled.Error()) {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestRecordPaymentUnknownBooking(t *testing.T) {
	f := newPaymentFixture()

	cmd := commands.RecordPaymentCommand{BookingID: uuid.New(), AmountCents: 10000, Key: "pay-1"}
	res, err := f.svc.HandleRecordPayment(context.Background(), cmd)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(res.Error, caterflow_errors.ErrNotFound.Error()) {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestRecordPaymentIdempotentReplay(t *testing.T) {
	f := newPaymentFixture()
	b := f.seedBooking(55000, 10000)

	cmd := commands.RecordPaymentCommand{BookingID: b.ID, AmountCents: 10000, Key: "pay-1"}
	first, err := f.svc.HandleRecordPayment(context.Background(), cmd)
	if err != nil || !first.Success {
		t.Fatalf("first call: %v / %q", err, first.Error)
	}

	second, err := f.svc.HandleRecordPayment(context.Background(), cmd)
	if err != nil || !second.Success {
		t.Fatalf("replay: %v / %q", err, second.Error)
	}

	firstJSON, _ := json.Marshal(first.Data)
	secondJSON, _ := json.Marshal(second.Data)
	if string(firstJSON) != string(secondJSON) {
		t.Fatalf("replay data %s != original %s", secondJSON, firstJSON)
	}
	if len(f.payments.payments) != 1 {
		t.Fatalf("replay recorded a second payment: %d", len(f.payments.payments))
	}
	if f.bookings.bookings[b.ID].BalanceDueCents != 45000 {
		t.Fatalf("balance = %d, want 45000", f.bookings.bookings[b.ID].BalanceDueCents)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newPaymentFixture()

	res, err := f.svc.HandleRecordPayment(context.Background(), commands.RecordPaymentCommand{AmountCents: 100})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success || !strings.Contains(res.Error, "booking_id") {
		t.Fatalf("expected booking_id validation failure, got %+v", res)
	}

	res, err = f.svc.HandleRecordPayment(context.Background(), commands.RecordPaymentCommand{BookingID: uuid.New(), AmountCents: 0})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success {
		t.Fatal("expected amount validation failure")
	}
}
