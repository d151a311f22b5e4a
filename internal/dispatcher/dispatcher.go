// Package dispatcher fans a company batch out over a bounded worker pool
// and collects per-company terminal outcomes.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Kalinka5/osint-vm/internal/ingest"
	"github.com/Kalinka5/osint-vm/internal/store"
	"github.com/Kalinka5/osint-vm/internal/worker"
)

// maxConcurrency caps the pool size; a larger batch just queues.
const maxConcurrency = 50

// Dispatcher runs companies through a fixed number of workers. Each worker
// takes one company to completion before picking up the next; the only
// shared mutable state between companies is the ledger behind the worker.
type Dispatcher struct {
	worker      *worker.Worker
	concurrency int
	logger      *zap.Logger
}

// New creates a Dispatcher.
func New(w *worker.Worker, concurrency int, logger *zap.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		worker:      w,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run processes the batch and blocks until every dispatched company has
// reached a terminal state. Canceling the context stops dispatching new
// companies; in-flight ones finish or time out on their own deadlines.
func (d *Dispatcher) Run(ctx context.Context, companies []store.Company) ([]ingest.Outcome, *ingest.Summary) {
	jobs := make(chan store.Company)
	results := make(chan ingest.Outcome)

	var wg sync.WaitGroup
	for i := 0; i < d.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for company := range jobs {
				results <- d.worker.ProcessCompany(ctx, company)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, company := range companies {
			select {
			case <-ctx.Done():
				d.logger.Info("run canceled; no further companies will be dispatched",
					zap.Int64("next_company_id", company.ID),
				)
				return
			case jobs <- company:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := ingest.NewSummary()
	var outcomes []ingest.Outcome
	for outcome := range results {
		summary.Add(outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, summary
}
