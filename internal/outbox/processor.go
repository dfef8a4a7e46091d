package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bsm/redislock"

	"caterflow/internal/domain/outbox"
	"caterflow/internal/events"
	"caterflow/internal/repository"
	"caterflow/pkg/logger"
)

// Processor is the outbox consumer: it claims pending entries, publishes
// one envelope per integration target, and owns all status transitions
// after PENDING. Command handlers never touch entries once committed.
type Processor struct {
	repo        repository.OutboxRepository
	publisher   events.Publisher
	locker      *redislock.Client
	workerID    string
	batchSize   int
	maxAttempts int
	lockTTL     time.Duration
	clock       func() time.Time
	log         *logger.Logger
}

func NewProcessor(repo repository.OutboxRepository, publisher events.Publisher, locker *redislock.Client, workerID string, batchSize, maxAttempts int, lockTTL time.Duration, log *logger.Logger) *Processor {
	return &Processor{
		repo:        repo,
		publisher:   publisher,
		locker:      locker,
		workerID:    workerID,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		lockTTL:     lockTTL,
		clock:       time.Now,
		log:         log,
	}
}

// ProcessBatch runs one poll cycle. With a locker configured, only the
// replica holding the leader lock processes; delivery stays at-least-once
// either way, the lock just avoids wasted duplicate publishes.
func (p *Processor) ProcessBatch(ctx context.Context) {
	if p.locker != nil {
		lock, err := p.locker.Obtain(ctx, "caterflow:outbox:leader", p.lockTTL, nil)
		if err != nil {
			if !errors.Is(err, redislock.ErrNotObtained) && p.log != nil {
				p.log.Warnf("outbox leader lock: %v", err)
			}
			return
		}
		defer lock.Release(ctx)
	}

	staleBefore := p.clock().UTC().Add(-p.lockTTL)
	entries, err := p.repo.ClaimPending(ctx, p.workerID, p.batchSize, staleBefore)
	if err != nil {
		if p.log != nil {
			p.log.Errorf("outbox claim: %v", err)
		}
		return
	}
	for i := range entries {
		p.processEntry(ctx, &entries[i])
	}
}

func (p *Processor) processEntry(ctx context.Context, entry *outbox.Entry) {
	if entry.Attempts >= p.maxAttempts {
		_ = p.repo.MarkFailed(ctx, entry.ID, "max delivery attempts exceeded")
		if p.log != nil {
			p.log.Warnf("outbox entry %s dead-lettered after %d attempts", entry.ID, entry.Attempts)
		}
		return
	}

	var targets []string
	if err := json.Unmarshal(entry.Targets, &targets); err != nil {
		_ = p.repo.MarkFailed(ctx, entry.ID, "unreadable targets: "+err.Error())
		return
	}

	for _, target := range targets {
		env := events.Envelope{
			EventType:     entry.EventType,
			AggregateType: entry.AggregateType,
			AggregateID:   entry.AggregateID.String(),
			Target:        target,
			OccurredAt:    entry.CreatedAt.UTC(),
			Payload:       json.RawMessage(entry.EventData),
		}
		payload, err := json.Marshal(env)
		if err != nil {
			_ = p.repo.MarkFailed(ctx, entry.ID, err.Error())
			return
		}
		if err := p.publisher.Publish(ctx, events.ChannelForTarget(target), payload); err != nil {
			// Back to the pending pool; consumers tolerate the re-publish
			// of targets that already succeeded in this pass.
			_ = p.repo.Release(ctx, entry.ID, err.Error())
			if p.log != nil {
				p.log.Warnf("outbox entry %s target %s: %v", entry.ID, target, err)
			}
			return
		}
	}

	if err := p.repo.MarkDispatched(ctx, entry.ID); err != nil && p.log != nil {
		p.log.Errorf("outbox mark dispatched %s: %v", entry.ID, err)
	}
}
