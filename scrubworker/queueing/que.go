package queueing

import (
	"context"
	"encoding/json"

	"github.com/bgentry/que-go"
	"github.com/jackc/pgx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/constants"
	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/metrics"
	"github.com/CMSgov/scrub-app/scrub/models"
)

// BatchValidator validates the claims of a queued batch.
type BatchValidator interface {
	ValidateBatch(ctx context.Context, claims []models.Claim, categories []models.Category) (*models.BatchResult, error)
}

type queue struct {
	// ctx carries request-independent values, such as the metrics timer,
	// into every job.
	ctx           context.Context
	validator     BatchValidator
	repository    models.BatchRepository
	sampler       metrics.Sampler
	cloudWatchEnv string
	log           logrus.FieldLogger

	MaxRetry int32 `conf:"SCRUB_WORKER_MAX_RETRIES" conf_default:"3"`
}

// Queue owns the que-go worker pool processing ValidateBatch jobs.
type Queue struct {
	*queue

	queDB   *pgx.ConnPool
	quePool *que.WorkerPool
}

func newQueue(logger logrus.FieldLogger, validator BatchValidator, repository models.BatchRepository) *queue {
	q := &queue{
		validator:     validator,
		repository:    repository,
		cloudWatchEnv: conf.GetEnv("DEPLOYMENT_TARGET"),
		log:           logger,
	}
	if err := conf.Checkout(q); err != nil {
		logger.Fatal("Could not get data from conf for queue.", err)
	}

	if q.cloudWatchEnv != "" {
		sampler, err := metrics.NewSampler("Scrub", "Count")
		if err != nil {
			logger.Warnf("Failed to create metric sampler, batch metrics disabled: %s", err)
		} else {
			q.sampler = sampler
		}
	}
	return q
}

// StartQue creates a que-go client and begins listening for items
// It returns immediately since all of the associated workers are started
// in separate goroutines. Jobs see the values of ctx but not its
// cancellation, so in-flight batches finish during StopQue.
func StartQue(ctx context.Context, logger logrus.FieldLogger, queDB *pgx.ConnPool, validator BatchValidator, repository models.BatchRepository, numWorkers int) *Queue {
	q := &Queue{
		queue: newQueue(logger, validator, repository),
		queDB: queDB,
	}
	q.ctx = context.WithoutCancel(ctx)

	qc := que.NewClient(queDB)
	wm := que.WorkMap{
		constants.ValidateBatchJob: q.validateBatch,
	}

	q.quePool = que.NewWorkerPool(qc, wm, numWorkers)
	q.quePool.Start()

	logger.Infof("Started que worker pool with %d workers", numWorkers)

	return q
}

// StopQue cleans up any resources created
func (q *Queue) StopQue() {
	q.quePool.Shutdown()
	q.queDB.Close()
}

func (q *queue) validateBatch(queJob *que.Job) error {
	var args models.ValidateBatchArgs
	if err := json.Unmarshal(queJob.Args, &args); err != nil {
		// ACK the job because retrying it won't help us be able to deserialize the data
		q.log.Warnf("Failed to deserialize job.Args '%s' %s. Removing queuejob from que.", queJob.Args, err)
		return nil
	}

	base := q.ctx
	if base == nil {
		base = context.Background()
	}
	ctx := log.NewStructuredLoggerEntry(base, q.log)
	ctx, _ = log.SetCtxLogger(ctx, "job_id", queJob.ID)
	ctx, logger := log.SetCtxLogger(ctx, "batch_id", args.BatchID)

	if queJob.ErrorCount >= q.MaxRetry {
		logger.Errorf("Batch exceeded %d attempts, marking as failed", q.MaxRetry)
		q.failBatch(ctx, args.BatchID)
		return nil
	}

	if err := q.repository.UpdateBatchStatus(ctx, args.BatchID, constants.BatchInProgress); err != nil {
		err = errors.Wrap(err, "could not update batch status")
		logger.Error(err)
		return err
	}

	result, err := q.validator.ValidateBatch(ctx, args.Claims, args.Categories)
	if err != nil {
		var sizeErr *scruberrors.BatchSizeError
		if scruberrors.IsFatalConfig(err) || errors.As(err, &sizeErr) {
			// Retrying cannot fix the rule catalog or the batch itself.
			logger.Errorf("Batch cannot be validated: %s", err)
			q.failBatch(ctx, args.BatchID)
			return nil
		}
		err = errors.Wrap(err, "failed to validate batch")
		logger.Error(err)
		return err
	}

	if err := q.repository.CompleteBatch(ctx, args.BatchID, result); err != nil {
		err = errors.Wrap(err, "could not store batch result")
		logger.Error(err)
		return err
	}

	q.recordMetrics(ctx, result.Summary)

	logger.WithFields(logrus.Fields{
		"claim_count":   result.Summary.Total,
		"passed":        result.Summary.Passed,
		"warnings":      result.Summary.Warnings,
		"failed":        result.Summary.Failed,
		"average_score": result.Summary.AverageScore,
	}).Info("Batch validation complete")

	return nil
}

func (q *queue) failBatch(ctx context.Context, batchID string) {
	if err := q.repository.UpdateBatchStatus(ctx, batchID, constants.BatchFailed); err != nil {
		log.GetCtxLogger(ctx).Errorf("Failed to mark batch as failed: %s", err)
	}
}

func (q *queue) recordMetrics(ctx context.Context, summary models.Summary) {
	if q.sampler == nil {
		return
	}

	dims := []metrics.Dimension{{Name: "Environment", Value: q.cloudWatchEnv}}
	if err := metrics.RecordBatch(ctx, q.sampler, summary, dims); err != nil {
		log.GetCtxLogger(ctx).Error(errors.Wrap(err, "failed to publish batch metrics"))
	}
}
