package main

import (
	"context"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/health"
)

type HealthLogger struct {
	Logger  logrus.FieldLogger
	checker health.Checker
}

func NewHealthLogger(checker health.Checker) *HealthLogger {
	return &HealthLogger{Logger: log.Health, checker: checker}
}

func (l *HealthLogger) Log(ctx context.Context) {
	logFields := logrus.Fields{}
	logFields["type"] = "health"
	logFields["id"] = uuid.NewRandom().String()

	if _, ok := l.checker.IsDatabaseOK(ctx); ok {
		logFields["db"] = "ok"
	} else {
		logFields["db"] = "error"
	}

	if _, ok := l.checker.IsEligibilityOK(ctx); ok {
		logFields["eligibility"] = "ok"
	} else {
		logFields["eligibility"] = "error"
	}

	l.Logger.WithFields(logFields).Info()
}
