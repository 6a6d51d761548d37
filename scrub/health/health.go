package health

import (
	"context"
	"database/sql"
	"time"

	"github.com/CMSgov/scrub-app/log"
)

const checkTimeout = 5 * time.Second

// Pinger is any dependency able to report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Checker interface {
	IsDatabaseOK(ctx context.Context) (string, bool)
	IsEligibilityOK(ctx context.Context) (string, bool)
}

// Ensure HealthChecker satisfies the interface
var _ Checker = HealthChecker{}

type HealthChecker struct {
	db          *sql.DB
	eligibility Pinger
}

// NewHealthChecker returns a checker for the configured dependencies. A nil
// dependency is reported as not configured and does not fail the check.
func NewHealthChecker(db *sql.DB, eligibility Pinger) HealthChecker {
	return HealthChecker{db: db, eligibility: eligibility}
}

func (h HealthChecker) IsDatabaseOK(ctx context.Context) (result string, ok bool) {
	if h.db == nil {
		return "not configured", true
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		log.Health.Error("Health check: database ping error: ", err.Error())
		return "database ping error", false
	}

	return "ok", true
}

func (h HealthChecker) IsEligibilityOK(ctx context.Context) (result string, ok bool) {
	if h.eligibility == nil {
		return "not configured", true
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := h.eligibility.Ping(ctx); err != nil {
		log.Health.Error("Health check: eligibility service error: ", err.Error())
		return "eligibility service unreachable", false
	}

	return "ok", true
}
