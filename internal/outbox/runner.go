package outbox

import (
	"context"
	"sync"
	"time"

	"caterflow/internal/repository"
	"caterflow/pkg/logger"
)

// Runner drives the processor's poll loop and the idempotency-ledger GC.
type Runner struct {
	processor  *Processor
	ledger     repository.IdempotencyRepository
	interval   time.Duration
	gcInterval time.Duration
	log        *logger.Logger
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

func NewRunner(processor *Processor, ledger repository.IdempotencyRepository, interval, gcInterval time.Duration, log *logger.Logger) *Runner {
	return &Runner{
		processor:  processor,
		ledger:     ledger,
		interval:   interval,
		gcInterval: gcInterval,
		log:        log,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the worker loops
func (r *Runner) Start() {
	r.wg.Add(2)
	go r.runPolling()
	go r.runGC()
}

// Stop gracefully shuts down
func (r *Runner) Stop() {
	close(r.stopChan)
	r.wg.Wait()
}

func (r *Runner) runPolling() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.processor.ProcessBatch(context.Background())
		}
	}
}

func (r *Runner) runGC() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			deleted, err := r.ledger.DeleteExpired(context.Background())
			if err != nil {
				if r.log != nil {
					r.log.Errorf("idempotency gc: %v", err)
				}
				continue
			}
			if deleted > 0 && r.log != nil {
				r.log.Infof("idempotency gc removed %d expired records", deleted)
			}
		}
	}
}
