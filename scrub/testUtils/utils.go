package testUtils

import (
	"context"
	"log"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/CMSgov/scrub-app/conf"
)

// CtxMatcher allow us to validate that the caller supplied a context.Context argument
// See: https://github.com/stretchr/testify/issues/519
var CtxMatcher = mock.MatchedBy(func(ctx context.Context) bool { return true })

// GetLogger returns the underlying logrus.Logger so tests can attach hooks.
func GetLogger(logger logrus.FieldLogger) *logrus.Logger {
	switch l := logger.(type) {
	case *logrus.Entry:
		return l.Logger
	case *logrus.Logger:
		return l
	default:
		panic("unexpected logger type")
	}
}

func setEnv(why, key, value string) {
	if err := conf.SetEnv(&testing.T{}, key, value); err != nil {
		log.Printf("Error %s env value %s to %s\n", why, key, value)
	}
}

// SetAndRestoreEnvKey replaces the current value of the env var key,
// returning a function which can be used to restore the original value
func SetAndRestoreEnvKey(key, value string) func() {
	originalValue := conf.GetEnv(key)
	setEnv("setting", key, value)
	return func() {
		setEnv("restoring", key, originalValue)
	}
}
