package commands

import (
	"context"

	"caterflow/internal/domain/event"

	"github.com/go-playground/validator/v10"
)

// Command is a request to change system state, optionally carrying a
// client-supplied idempotency key. Commands are immutable once constructed.
type Command interface {
	CommandType() string
	Validate() error
	IdempotencyKey() string
}

// Result is what every handler returns. Success and Error are mutually
// exclusive; Data carries the public result payload (booking id,
// confirmation number, ...) and is what the idempotency ledger stores for
// replay. Events holds the domain events the command produced, in the
// order the handler constructed them.
type Result struct {
	Success bool                `json:"success"`
	Data    map[string]any      `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Events  []event.DomainEvent `json:"-"`
}

// Succeed builds a success result.
func Succeed(data map[string]any, evs []event.DomainEvent) Result {
	return Result{Success: true, Data: data, Events: evs}
}

// Fail builds a failure result.
func Fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Handler executes one command type.
type Handler interface {
	Handle(ctx context.Context, cmd Command) (Result, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, cmd Command) (Result, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

var validate = validator.New()
