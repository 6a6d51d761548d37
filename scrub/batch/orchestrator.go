package batch

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/engine"
	"github.com/CMSgov/scrub-app/scrub/metrics"
	"github.com/CMSgov/scrub-app/scrub/models"
)

// Orchestrator validates batches of claims on a fixed size worker pool.
type Orchestrator struct {
	engine  *engine.Engine
	workers int
}

// New returns an Orchestrator running workers goroutines per batch. A
// non-positive count uses the number of available cores.
func New(e *engine.Engine, workers int) *Orchestrator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Orchestrator{engine: e, workers: workers}
}

func (o *Orchestrator) Workers() int {
	return o.workers
}

// ValidateBatch validates every claim and returns the results in input order
// along with aggregate counts. A fatal configuration error is returned before
// any claim is evaluated.
//
// When ctx is cancelled no further claims are dispatched. Claims already being
// validated run to completion, and the returned BatchResult holds every
// completed claim in input order together with ctx.Err().
func (o *Orchestrator) ValidateBatch(ctx context.Context, claims []models.Claim, cfg engine.RuleConfig) (*models.BatchResult, error) {
	plan, err := o.engine.Prepare(cfg)
	if err != nil {
		return nil, err
	}

	ctx, closeTimer := metrics.NewParent(ctx, "ValidateBatch")
	defer closeTimer()

	start := time.Now()
	results := make([]models.ValidationResult, len(claims))
	completed := make([]bool, len(claims))

	// In-flight validations must not observe the caller's cancellation.
	runCtx := context.WithoutCancel(ctx)
	work := make(chan int)

	workers := o.workers
	if workers > len(claims) {
		workers = len(claims)
	}

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			workerCtx := metrics.ForGoroutine(runCtx)
			for i := range work {
				results[i] = plan.Validate(workerCtx, &claims[i])
				completed[i] = true
			}
			return nil
		})
	}

dispatch:
	for i := range claims {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case work <- i:
		}
	}
	close(work)
	_ = g.Wait()

	ordered := make([]models.ValidationResult, 0, len(claims))
	for i := range claims {
		if completed[i] {
			ordered = append(ordered, results[i])
		}
	}

	batch := &models.BatchResult{
		Results: ordered,
		Summary: models.Summarize(ordered),
	}
	if len(ordered) < len(claims) {
		batch.Cancelled = true
		batch.Unprocessed = len(claims) - len(ordered)
	}

	log.GetCtxLogger(ctx).WithFields(logrus.Fields{
		"claims":        len(claims),
		"validated":     batch.Summary.Total,
		"passed":        batch.Summary.Passed,
		"warnings":      batch.Summary.Warnings,
		"failed":        batch.Summary.Failed,
		"average_score": batch.Summary.AverageScore,
		"workers":       workers,
		"elapsed_ms":    time.Since(start).Milliseconds(),
	}).Info("Batch validation complete")

	if batch.Cancelled {
		return batch, ctx.Err()
	}
	return batch, nil
}
