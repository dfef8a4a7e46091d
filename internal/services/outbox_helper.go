package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"caterflow/internal/domain/event"
	"caterflow/internal/domain/outbox"
	"caterflow/internal/repository"
)

// createOutboxEntries writes one PENDING entry per appended event, carrying
// the event payload and the target set. Events with no targets are purely
// internal and create nothing. Must run inside the command's transaction.
func createOutboxEntries(ctx context.Context, repo repository.OutboxRepository, evs []*event.DomainEvent, targets []string) error {
	if len(targets) == 0 {
		return nil
	}
	rawTargets, err := json.Marshal(targets)
	if err != nil {
		return err
	}
	for _, ev := range evs {
		entry := &outbox.Entry{
			ID:            uuid.New(),
			EventType:     ev.EventType,
			AggregateType: ev.AggregateType,
			AggregateID:   ev.AggregateID,
			EventData:     ev.Payload,
			Targets:       datatypes.JSON(rawTargets),
			Status:        outbox.StatusPending,
			CreatedAt:     time.Now().UTC(),
		}
		if err := repo.Create(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
