package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrlogrus"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/utils"
)

// Timer provides methods for timing methods.
// Typical Usage scenario:
//
//	timer := metrics.GetTimer()
//	defer timer.Close()
//	ctx := metrics.NewContext(ctx, timer)
//	ctx, close := metrics.NewParent(ctx, "ValidateBatch")
//	defer close()
//	close1 := metrics.NewChild(ctx, "rule COD_001")
//	// evaluate the rule
//	close1()
type Timer interface {
	// new creates a new timer and embeds it into the returned context.
	new(parentCtx context.Context, name string) (ctx context.Context, close func())

	// newChild creates a timer (child) from the parent via the supplied context.
	newChild(parentCtx context.Context, name string) (close func())

	// Close flushes pending metrics and releases the Timer's resources.
	Close()
}

type key int

const timerKey key = 0

// NewContext returns a new Context that carries the provided Timer
func NewContext(ctx context.Context, t Timer) context.Context {
	return context.WithValue(ctx, timerKey, t)
}

// NewParent creates a parent timer and embeds it into the returned context.
func NewParent(ctx context.Context, name string) (context.Context, func()) {
	return fromContext(ctx).new(ctx, name)
}

// NewChild creates a child timer from the parent found within the supplied context
func NewChild(ctx context.Context, name string) func() {
	return fromContext(ctx).newChild(ctx, name)
}

// ForGoroutine prepares ctx for use on a new goroutine. Transactions must not
// be shared between goroutines.
func ForGoroutine(ctx context.Context) context.Context {
	if txn := newrelic.FromContext(ctx); txn != nil {
		return newrelic.NewContext(ctx, txn.NewGoroutine())
	}
	return ctx
}

var defaultTimer = &noopTimer{}

// fromContext returns the Timer associated with the context.
// If no Timer is found on the context, a default no-op timer is returned.
func fromContext(ctx context.Context) Timer {
	t, ok := ctx.Value(timerKey).(Timer)
	if !ok {
		return defaultTimer
	}
	return t
}

// GetTimer returns a New Relic backed timer, or a no-op timer when New Relic
// is not configured or unreachable.
func GetTimer() Timer {
	license := conf.GetEnv("NEW_RELIC_LICENSE_KEY")
	if license == "" {
		log.API.Info("No New Relic license key configured. Using no-op timer.")
		return &noopTimer{}
	}

	target := conf.GetEnv("DEPLOYMENT_TARGET")
	if target == "" {
		target = "local"
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(fmt.Sprintf("Scrub-%s", target)),
		newrelic.ConfigLicense(license),
		newrelic.ConfigEnabled(true),
		newrelic.ConfigLogger(nrLogger()),
		func(cfg *newrelic.Config) {
			cfg.HighSecurity = true
		},
	)
	if err != nil {
		log.API.Warnf("Failed to instantiate New Relic application. Default to no-op timer. %s", err.Error())
		return &noopTimer{}
	}

	timeout := time.Duration(utils.GetEnvInt("NEW_RELIC_CONNECTION_TIMEOUT_SECONDS", 30)) * time.Second
	if err = app.WaitForConnection(timeout); err != nil {
		log.API.Warnf("Failed to establish connection to New Relic server in %s. Default to no-op timer.", timeout)
		return &noopTimer{}
	}

	log.API.Info("Using New Relic backed timer.")
	return &timer{app}
}

func nrLogger() newrelic.Logger {
	if entry, ok := log.API.(*logrus.Entry); ok {
		return nrlogrus.Transform(entry.Logger)
	}
	return nrlogrus.StandardLogger()
}

// validates that timer implements the interface
var _ Timer = &timer{}

type timer struct {
	nr *newrelic.Application
}

func (t *timer) new(parentCtx context.Context, name string) (ctx context.Context, close func()) {
	txn := t.nr.StartTransaction(name)
	ctx = newrelic.NewContext(parentCtx, txn)

	return ctx, func() {
		txn.End()
	}
}

func (t *timer) newChild(parentCtx context.Context, name string) (close func()) {
	txn := newrelic.FromContext(parentCtx)
	if txn == nil {
		log.API.Debug("No transaction found. Cannot create child.")
		return noop
	}
	segment := txn.StartSegment(name)

	return func() {
		segment.End()
	}
}

func (t *timer) Close() {
	const shutdownTimeout = 30 * time.Second
	t.nr.Shutdown(shutdownTimeout)
}

// validates that noopTimer implements the interface
var _ Timer = &noopTimer{}

type noopTimer struct {
}

func (t *noopTimer) new(parentCtx context.Context, name string) (ctx context.Context, close func()) {
	return parentCtx, noop
}

func (t *noopTimer) newChild(parentCtx context.Context, name string) (close func()) {
	return noop
}

func (t *noopTimer) Close() {
}

func noop() {
}
