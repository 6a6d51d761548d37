/*
Enqueue.go has an interface implementation and a constructor for the que-go backed
Enqueuer used by the API to hand batches to the worker.
*/

package queueing

import (
	"context"
	"encoding/json"

	"github.com/bgentry/que-go"
	"github.com/jackc/pgx"
	"github.com/pkg/errors"

	"github.com/CMSgov/scrub-app/scrub/constants"
	"github.com/CMSgov/scrub-app/scrub/models"
	"github.com/CMSgov/scrub-app/scrub/service"
)

// Ensure queEnqueuer satisfies the interface
var _ service.Enqueuer = queEnqueuer{}

type queEnqueuer struct {
	*que.Client
}

func NewEnqueuer(queDB *pgx.ConnPool) service.Enqueuer {
	return queEnqueuer{que.NewClient(queDB)}
}

func (q queEnqueuer) AddValidateBatchJob(ctx context.Context, args models.ValidateBatchArgs) error {
	b, err := json.Marshal(args)
	if err != nil {
		return errors.Wrap(err, "failed to marshal batch args")
	}

	return q.Enqueue(&que.Job{
		Type: constants.ValidateBatchJob,
		Args: b,
	})
}

// NewQueuePool opens the pgx connection pool que-go works from.
func NewQueuePool(queueDatabaseURL string, maxConnections int) (*pgx.ConnPool, error) {
	pgxcfg, err := pgx.ParseURI(queueDatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid queue database URL")
	}

	pool, err := pgx.NewConnPool(pgx.ConnPoolConfig{
		ConnConfig:     pgxcfg,
		MaxConnections: maxConnections,
		AfterConnect:   que.PrepareStatements,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open queue connection pool")
	}
	return pool, nil
}
