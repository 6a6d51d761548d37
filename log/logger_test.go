package log

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/scrub/constants"
	"github.com/CMSgov/scrub-app/scrub/testUtils"
)

// TestLoggers verifies that all of our loggers are set up
// with the expected parameters and write to the expected files.
func TestLoggers(t *testing.T) {
	env := uuid.New()
	oldEnv := conf.GetEnv("DEPLOYMENT_TARGET")
	assert.NoError(t, conf.SetEnv(t, "DEPLOYMENT_TARGET", env))
	t.Cleanup(func() { assert.NoError(t, conf.SetEnv(t, "DEPLOYMENT_TARGET", oldEnv)) })

	tests := []struct {
		logEnv      string
		logSupplier func() logrus.FieldLogger
		application string
		logType     string
	}{
		{"SCRUB_ERROR_LOG", func() logrus.FieldLogger { return API }, "api", "error"},
		{"SCRUB_REQUEST_LOG", func() logrus.FieldLogger { return Request }, "api", "request"},
		{"SCRUB_ENGINE_LOG", func() logrus.FieldLogger { return Engine }, "api", "engine"},
		{"SCRUB_WORKER_ERROR_LOG", func() logrus.FieldLogger { return Worker }, "worker", "error"},
		{"WORKER_HEALTH_LOG", func() logrus.FieldLogger { return Health }, "worker", "health"},
	}
	for _, tt := range tests {
		t.Run(tt.logEnv, func(t *testing.T) {
			logFile, err := os.CreateTemp("", "*")
			assert.NoError(t, err)
			old := conf.GetEnv(tt.logEnv)
			t.Cleanup(func() {
				assert.NoError(t, os.Remove(logFile.Name()))
				assert.NoError(t, conf.SetEnv(t, tt.logEnv, old))
				SetupLoggers()
			})

			assert.NoError(t, conf.SetEnv(t, tt.logEnv, logFile.Name()))

			// Refresh the logger to reference the new configs
			SetupLoggers()

			msg := uuid.New()
			tt.logSupplier().Info(msg)

			data, err := io.ReadAll(logFile)
			assert.NoError(t, err)

			res := strings.Split(string(data), "\n")
			// msg + new line
			assert.Len(t, res, 2)
			var fields logrus.Fields
			assert.NoError(t, json.Unmarshal([]byte(res[0]), &fields))
			assert.Equal(t, tt.application, fields["application"])
			assert.Equal(t, tt.logType, fields["log_type"])
			assert.Equal(t, env, fields["environment"])
			assert.Equal(t, msg, fields["msg"])
			assert.Equal(t, constants.SourceApp, fields["source_app"])
			assert.Equal(t, constants.Version, fields["version"])
			_, err = time.Parse(time.RFC3339Nano, fields["time"].(string))
			assert.NoError(t, err)
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultFieldLogger("test-log-type")
	testLogger := test.NewLocal(testUtils.GetLogger(logger))

	msg := uuid.New()
	logger.Info(msg)

	assert.Equal(t, 1, len(testLogger.Entries))
	assert.Equal(t, msg, testLogger.LastEntry().Message)
	assert.Equal(t, "default", testLogger.LastEntry().Data["application"])
	assert.Equal(t, "test-log-type", testLogger.LastEntry().Data["log_type"])
	assert.Equal(t, constants.Version, testLogger.LastEntry().Data["version"])
}

func TestSetLoggerFields(t *testing.T) {
	apiLogger := defaultFieldLogger("test-log-type")
	testLogger := test.NewLocal(testUtils.GetLogger(apiLogger))
	ctx := NewStructuredLoggerEntry(context.Background(), apiLogger)
	_, logger := SetLoggerFields(ctx, logrus.Fields{"request_id": "123456", "batch_id": "b-1"})

	logger.WithField("test", "entry").Error("test-msg")
	entry := testLogger.LastEntry()

	assert.Equal(t, "test-msg", entry.Message)
	assert.Equal(t, "123456", entry.Data["request_id"])
	assert.Equal(t, "b-1", entry.Data["batch_id"])
	assert.Equal(t, "entry", entry.Data["test"])
}

func TestSetCtxLoggerWithoutEntry(t *testing.T) {
	ctx, logger := SetCtxLogger(context.Background(), "claim_id", "c-1")
	assert.NotNil(t, GetCtxEntry(ctx))
	assert.Equal(t, logger, GetCtxLogger(ctx))
}

func TestWriteWithFields(t *testing.T) {
	tests := []struct {
		name  string
		write func(context.Context, string, logrus.Fields) (context.Context, logrus.FieldLogger)
		level logrus.Level
	}{
		{"error", WriteErrorWithFields, logrus.ErrorLevel},
		{"warn", WriteWarnWithFields, logrus.WarnLevel},
		{"info", WriteInfoWithFields, logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiLogger := defaultFieldLogger("test-log-type")
			testLogger := test.NewLocal(testUtils.GetLogger(apiLogger))
			ctx := NewStructuredLoggerEntry(context.Background(), apiLogger)

			resultCtx, resultLogger := tt.write(ctx, "test-msg", logrus.Fields{"key1": "val1", "key2": "val2"})
			entry := testLogger.LastEntry()

			assert.Equal(t, "test-msg", entry.Message)
			assert.Equal(t, "val1", entry.Data["key1"])
			assert.Equal(t, "val2", entry.Data["key2"])
			assert.Equal(t, tt.level, entry.Level)

			// verify logger retains fields
			resultLogger.Error("new-test")
			assert.Equal(t, "val1", testLogger.LastEntry().Data["key1"])

			// verify logger set in ctx retains fields
			GetCtxLogger(resultCtx).Error("newest-test")
			entry = testLogger.LastEntry()
			assert.Equal(t, "newest-test", entry.Message)
			assert.Equal(t, "val1", entry.Data["key1"])
		})
	}
}
