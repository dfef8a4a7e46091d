package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"caterflow/internal/commands"
	"caterflow/internal/domain/customer"
	"caterflow/internal/events"
	caterflow_errors "caterflow/pkg/errors"
)

type bookingFixture struct {
	svc       *BookingService
	bookings  *fakeBookingRepo
	customers *fakeCustomerRepo
	events    *fakeEventRepo
	outbox    *fakeOutboxRepo
	ledger    *fakeLedgerRepo
}

func newBookingFixture(slotCapacity int64) *bookingFixture {
	f := &bookingFixture{
		bookings:  newFakeBookingRepo(),
		customers: newFakeCustomerRepo(),
		events:    &fakeEventRepo{},
		outbox:    &fakeOutboxRepo{},
		ledger:    newFakeLedgerRepo(),
	}
	f.svc = NewBookingService(nil, BookingRepos{
		Bookings:  f.bookings,
		Customers: f.customers,
		Events:    f.events,
		Outbox:    f.outbox,
		Ledger:    f.ledger,
	}, slotCapacity, time.Hour, nil)
	return f
}

func validCreateBooking() commands.CreateBookingCommand {
	return commands.CreateBookingCommand{
		CustomerName:    "Dana Reyes",
		Contact:         "dana@example.com",
		EventDate:       "2026-09-12",
		Slot:            "evening",
		GuestCount:      40,
		TotalDueCents:   55000,
		DepositDueCents: 10000,
		Key:             "create-1",
	}
}

func TestCreateBookingHappyPath(t *testing.T) {
	f := newBookingFixture(50)
	cmd := validCreateBooking()

	res, err := f.svc.HandleCreateBooking(context.Background(), cmd)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}

	if got := res.Data["balance_due_cents"]; got != int64(45000) {
		t.Fatalf("balance_due_cents = %v, want 45000", got)
	}
	conf, _ := res.Data["confirmation_number"].(string)
	if !strings.HasPrefix(conf, "CB-") || len(conf) != len("CB-")+8 {
		t.Fatalf("unexpected confirmation number %q", conf)
	}

	if len(f.bookings.bookings) != 1 {
		t.Fatalf("bookings persisted = %d, want 1", len(f.bookings.bookings))
	}
	for _, b := range f.bookings.bookings {
		if b.BalanceDueCents != 45000 {
			t.Fatalf("stored balance = %d, want 45000", b.BalanceDueCents)
		}
		if string(b.PaymentStatus) != "UNPAID" {
			t.Fatalf("stored payment status = %s, want UNPAID", b.PaymentStatus)
		}
	}

	if len(f.events.appended) != 1 {
		t.Fatalf("events appended = %d, want 1", len(f.events.appended))
	}
	if f.events.appended[0].EventType != events.EventTypeBookingCreated {
		t.Fatalf("event type = %s", f.events.appended[0].EventType)
	}
	if f.events.appended[0].OccurredAt.IsZero() {
		t.Fatal("event OccurredAt not assigned")
	}

	if len(f.outbox.entries) != 1 {
		t.Fatalf("outbox entries = %d, want 1", len(f.outbox.entries))
	}
	var targets []string
	if err := json.Unmarshal(f.outbox.entries[0].Targets, &targets); err != nil {
		t.Fatalf("targets: %v", err)
	}
	// Deposit is due, so the booking fans out to email and stripe.
	if len(targets) != 2 || targets[0] != events.TargetEmail || targets[1] != events.TargetStripe {
		t.Fatalf("targets = %v, want [email stripe]", targets)
	}

	if f.ledger.saves != 1 {
		t.Fatalf("ledger saves = %d, want 1", f.ledger.saves)
	}
}

func TestCreateBookingWithoutDepositSkipsStripe(t *testing.T) {
	f := newBookingFixture(50)
	cmd := validCreateBooking()
	cmd.DepositDueCents = 0

	res, err := f.svc.HandleCreateBooking(context.Background(), cmd)
	if err != nil || !res.Success {
		t.Fatalf("handle: %v / %q", err, res.Error)
	}

	var targets []string
	if err := json.Unmarshal(f.outbox.entries[0].Targets, &targets); err != nil {
		t.Fatalf("targets: %v", err)
	}
	if len(targets) != 1 || targets[0] != events.TargetEmail {
		t.Fatalf("targets = %v, want [email]", targets)
	}
}

func TestCreateBookingCapacityExceeded(t *testing.T) {
	f := newBookingFixture(50)

	first := validCreateBooking()
	first.GuestCount = 45
	if res, err := f.svc.HandleCreateBooking(context.Background(), first); err != nil || !res.Success {
		t.Fatalf("first booking: %v / %q", err, res.Error)
	}

	second := validCreateBooking()
	second.Key = "create-2"
	second.Contact = "other@example.com"
	second.GuestCount = 10

	res, err := f.svc.HandleCreateBooking(context.Background(), second)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success {
		t.Fatal("expected capacity rejection")
	}
	if !strings.Contains(res.Error, caterflow_errors.ErrCapacityExceeded.Error()) {
		t.Fatalf("error = %q, want capacity message", res.Error)
	}

	// The rejection left no trace: same counts as after the first booking,
	// and the second key remains retryable.
	if len(f.bookings.bookings) != 1 || len(f.events.appended) != 1 || len(f.outbox.entries) != 1 {
		t.Fatalf("rejection persisted state: %d bookings, %d events, %d outbox",
			len(f.bookings.bookings), len(f.events.appended), len(f.outbox.entries))
	}
	if _, ok := f.ledger.records["create-2"]; ok {
		t.Fatal("rejected command must not write a ledger record")
	}
}

func TestCreateBookingCapacityBoundaryExactFit(t *testing.T) {
	f := newBookingFixture(50)

	first := validCreateBooking()
	first.GuestCount = 45
	if res, err := f.svc.HandleCreateBooking(context.Background(), first); err != nil || !res.Success {
		t.Fatalf("first booking: %v / %q", err, res.Error)
	}

	second := validCreateBooking()
	second.Key = "create-2"
	second.Contact = "other@example.com"
	second.GuestCount = 5

	res, err := f.svc.HandleCreateBooking(context.Background(), second)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Success {
		t.Fatalf("booking filling the slot exactly must succeed, got %q", res.Error)
	}
}

func TestCreateBookingIdempotentReplay(t *testing.T) {
	f := newBookingFixture(50)
	cmd := validCreateBooking()

	first, err := f.svc.HandleCreateBooking(context.Background(), cmd)
	if err != nil || !first.Success {
		t.Fatalf("first call: %v / %q", err, first.Error)
	}

	second, err := f.svc.HandleCreateBooking(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !second.Success {
		t.Fatalf("replay failed: %q", second.Error)
	}

	// The ledger stores the result as JSON, so numeric types shift on
	// replay; compare the serialized form.
	firstJSON, _ := json.Marshal(first.Data)
	secondJSON, _ := json.Marshal(second.Data)
	if string(firstJSON) != string(secondJSON) {
		t.Fatalf("replay data %s != original %s", secondJSON, firstJSON)
	}

	if len(f.bookings.bookings) != 1 {
		t.Fatalf("replay created a second booking: %d", len(f.bookings.bookings))
	}
	if len(f.events.appended) != 1 || len(f.outbox.entries) != 1 {
		t.Fatalf("replay wrote events/outbox: %d / %d", len(f.events.appended), len(f.outbox.entries))
	}
	if f.ledger.saves != 1 {
		t.Fatalf("ledger saves = %d, want 1", f.ledger.saves)
	}
}

func TestCreateBookingValidationFailureWritesNothing(t *testing.T) {
	f := newBookingFixture(50)
	cmd := validCreateBooking()
	cmd.Contact = ""

	res, err := f.svc.HandleCreateBooking(context.Background(), cmd)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success {
		t.Fatal("expected validation failure")
	}
	if len(f.bookings.bookings) != 0 || len(f.events.appended) != 0 || len(f.outbox.entries) != 0 || f.ledger.saves != 0 {
		t.Fatal("validation failure must not persist anything")
	}
}

func TestCreateBookingRejectsDepositAboveTotal(t *testing.T) {
	f := newBookingFixture(50)
	cmd := validCreateBooking()
	cmd.DepositDueCents = cmd.TotalDueCents + 1

	res, err := f.svc.HandleCreateBooking(context.Background(), cmd)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(res.Error, "deposit_due_cents") {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestCreateBookingReusesCustomerByNormalizedContact(t *testing.T) {
	f := newBookingFixture(100)

	first := validCreateBooking()
	if res, err := f.svc.HandleCreateBooking(context.Background(), first); err != nil || !res.Success {
		t.Fatalf("first booking: %v / %q", err, res.Error)
	}

	second := validCreateBooking()
	second.Key = "create-2"
	second.Contact = "  Dana@Example.COM "
	second.EventDate = "2026-09-13"

	res, err := f.svc.HandleCreateBooking(context.Background(), second)
	if err != nil || !res.Success {
		t.Fatalf("second booking: %v / %q", err, res.Error)
	}

	if len(f.customers.byContact) != 1 {
		t.Fatalf("customers = %d, want 1", len(f.customers.byContact))
	}
}

func TestCreateBookingDuplicateKeyRaceReportsStillProcessing(t *testing.T) {
	f := newBookingFixture(50)
	// Simulate losing the ledger insert to a concurrent request whose
	// transaction has not committed yet.
	f.ledger.saveErr = caterflow_errors.ErrAlreadyExists

	res, err := f.svc.HandleCreateBooking(context.Background(), validCreateBooking())
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Success {
		t.Fatal("expected still-processing failure")
	}
	if res.Error != caterflow_errors.ErrStillProcessing.Error() {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestCreateBookingCustomerCreationRaceFallsBack(t *testing.T) {
	f := newBookingFixture(50)
	// Create loses the unique-contact race; the winner's row must be used.
	winner := customer.Customer{
		ID:      uuid.New(),
		Name:    "Dana Reyes",
		Contact: "dana@example.com",
	}
	f.customers.raceWinner = &winner

	res, err := f.svc.HandleCreateBooking(context.Background(), validCreateBooking())
	if err != nil || !res.Success {
		t.Fatalf("handle: %v / %q", err, res.Error)
	}
	if res.Data["customer_id"] != winner.ID.String() {
		t.Fatalf("customer_id = %v, want winner %s", res.Data["customer_id"], winner.ID)
	}
}
