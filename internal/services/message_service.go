package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"caterflow/internal/commands"
	"caterflow/internal/domain/customer"
	"caterflow/internal/domain/event"
	"caterflow/internal/domain/thread"
	"caterflow/internal/events"
	"caterflow/internal/repository"
	caterflow_errors "caterflow/pkg/errors"
	"caterflow/pkg/logger"
)

type MessageRepos struct {
	Threads repository.ThreadRepository
	Events  repository.EventRepository
	Outbox  repository.OutboxRepository
	Ledger  repository.IdempotencyRepository
}

func messageReposFor(db *gorm.DB) MessageRepos {
	return MessageRepos{
		Threads: repository.NewThreadRepository(db),
		Events:  repository.NewEventRepository(db),
		Outbox:  repository.NewOutboxRepository(db),
		Ledger:  repository.NewIdempotencyRepository(db),
	}
}

type MessageService struct {
	db        *gorm.DB
	repos     MessageRepos
	ledgerTTL time.Duration
	log       *logger.Logger
}

func NewMessageService(db *gorm.DB, repos MessageRepos, ledgerTTL time.Duration, log *logger.Logger) *MessageService {
	return &MessageService{db: db, repos: repos, ledgerTTL: ledgerTTL, log: log}
}

func (s *MessageService) RegisterHandlers(bus *commands.Bus) {
	bus.Register(commands.TypeReceiveMessage, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.ReceiveMessageCommand)
		if !ok {
			return commands.Fail(caterflow_errors.ErrInvalidInput.Error()), nil
		}
		return s.HandleReceiveMessage(ctx, typed)
	}))
}

func (s *MessageService) HandleReceiveMessage(ctx context.Context, cmd commands.ReceiveMessageCommand) (commands.Result, error) {
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
	run := func(rs MessageRepos) error {
		res, err := s.executeReceiveMessage(ctx, cmd, rs)
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
			return run(messageReposFor(tx))
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
			s.log.Errorf("receive message failed: %v", err)
		}
		return commands.Fail(genericFailureMessage), nil
	}
	return result, nil
}

type messageReceivedPayload struct {
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
	Contact   string `json:"contact"`
	Body      string `json:"body"`
	Channel   string `json:"channel"`
}

func (s *MessageService) executeReceiveMessage(ctx context.Context, cmd commands.ReceiveMessageCommand, rs MessageRepos) (commands.Result, error) {
	t, err := s.resolveThread(ctx, cmd, rs)
	if err != nil {
		return commands.Result{}, err
	}

	channel := cmd.Channel
	if channel == "" {
		channel = "sms"
	}
	now := time.Now().UTC()
	msg := &thread.Message{
		ID:         uuid.New(),
		ThreadID:   t.ID,
		Direction:  thread.DirectionInbound,
		Body:       cmd.Body,
		Channel:    channel,
		ReceivedAt: now,
	}
	if cmd.ExternalID != "" {
		msg.ExternalID = sql.NullString{String: cmd.ExternalID, Valid: true}
	}
	if err := rs.Threads.CreateMessage(ctx, msg); err != nil {
		return commands.Result{}, err
	}
	if err := rs.Threads.Touch(ctx, t.ID, now, true); err != nil {
		return commands.Result{}, err
	}

	payload, err := json.Marshal(messageReceivedPayload{
		ThreadID:  t.ID.String(),
		MessageID: msg.ID.String(),
		Contact:   t.Contact,
		Body:      msg.Body,
		Channel:   msg.Channel,
	})
	if err != nil {
		return commands.Result{}, err
	}

	ev := &event.DomainEvent{
		ID:            uuid.New(),
		AggregateType: events.AggregateThread,
		AggregateID:   t.ID,
		EventType:     events.EventTypeMessageReceived,
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
		"thread_id":  t.ID.String(),
		"message_id": msg.ID.String(),
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

// resolveThread finds the conversation a message belongs to: explicit id
// first, then the most recent thread for the contact, otherwise a fresh
// thread.
func (s *MessageService) resolveThread(ctx context.Context, cmd commands.ReceiveMessageCommand, rs MessageRepos) (thread.Thread, error) {
	if cmd.ThreadID != uuid.Nil {
		t, err := rs.Threads.GetByID(ctx, cmd.ThreadID)
		if err != nil {
			if errors.Is(err, caterflow_errors.ErrNotFound) {
				return thread.Thread{}, fmt.Errorf("thread %s: %w", cmd.ThreadID, caterflow_errors.ErrNotFound)
			}
			return thread.Thread{}, err
		}
		return t, nil
	}

	contact := customer.NormalizeContact(cmd.Contact)
	t, err := rs.Threads.GetLatestByContact(ctx, contact)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, caterflow_errors.ErrNotFound) {
		return thread.Thread{}, err
	}
	created := thread.Thread{
		ID:             uuid.New(),
		Contact:        contact,
		LastActivityAt: time.Now().UTC(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := rs.Threads.Create(ctx, &created); err != nil {
		return thread.Thread{}, err
	}
	return created, nil
}
