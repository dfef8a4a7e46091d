package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"caterflow/internal/commands"
	"caterflow/internal/domain/idempotency"
	"caterflow/internal/repository"
	caterflow_errors "caterflow/pkg/errors"

	"gorm.io/datatypes"
)

// checkLedger looks a command's idempotency key up in the ledger. A nil
// result means no usable record exists and the command must execute.
func checkLedger(ctx context.Context, repo repository.IdempotencyRepository, key string) (*commands.Result, error) {
	rec, err := repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, caterflow_errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	switch rec.Status {
	case idempotency.StatusCompleted:
		var data map[string]any
		if len(rec.Result) > 0 {
			if err := json.Unmarshal(rec.Result, &data); err != nil {
				return nil, err
			}
		}
		res := commands.Succeed(data, nil)
		return &res, nil
	case idempotency.StatusFailed:
		res := commands.Fail(caterflow_errors.ErrPreviouslyFailed.Error())
		return &res, nil
	default:
		res := commands.Fail(caterflow_errors.ErrStillProcessing.Error())
		return &res, nil
	}
}

// newCompletedRecord builds the COMPLETED ledger row a handler saves as the
// last write of its transaction.
func newCompletedRecord(cmd commands.Command, data map[string]any, ttl time.Duration) (*idempotency.Record, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &idempotency.Record{
		Key:         cmd.IdempotencyKey(),
		CommandType: cmd.CommandType(),
		Status:      idempotency.StatusCompleted,
		Result:      datatypes.JSON(raw),
		CreatedAt:   now,
		CompletedAt: &now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

// resolveDuplicate handles the loser of a racing ledger insert: if the
// winner already committed, its stored result is replayed; otherwise the
// winner is still mid-flight and the caller should back off and retry.
func resolveDuplicate(ctx context.Context, repo repository.IdempotencyRepository, key string) commands.Result {
	if res, err := checkLedger(ctx, repo, key); err == nil && res != nil {
		return *res
	}
	return commands.Fail(caterflow_errors.ErrStillProcessing.Error())
}

// isRejection reports whether err is a business-rule violation: nothing was
// persisted, the message is safe to surface, and the same idempotency key
// may be retried.
func isRejection(err error) bool {
	for _, target := range []error{
		caterflow_errors.ErrCapacityExceeded,
		caterflow_errors.ErrNotFound,
		caterflow_errors.ErrBookingCancelled,
		caterflow_errors.ErrPaymentExceeds,
		caterflow_errors.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var genericFailureMessage = caterflow_errors.ErrInternal.Error()
