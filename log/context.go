package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextKey string

// CtxLoggerKey is the context key under which the request scoped
// StructuredLoggerEntry is stored.
const CtxLoggerKey contextKey = "ctxLogger"

// StructuredLoggerEntry carries a logger that accumulates fields over the life
// of a request or job.
type StructuredLoggerEntry struct {
	Logger logrus.FieldLogger
}

// NewStructuredLoggerEntry stores a fresh entry built from logger in ctx.
func NewStructuredLoggerEntry(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, CtxLoggerKey, &StructuredLoggerEntry{Logger: logger})
}

// GetCtxEntry returns the entry stored in ctx, or nil.
func GetCtxEntry(ctx context.Context) *StructuredLoggerEntry {
	entry, _ := ctx.Value(CtxLoggerKey).(*StructuredLoggerEntry)
	return entry
}

// GetCtxLogger returns the logger stored in ctx, falling back to API.
func GetCtxLogger(ctx context.Context) logrus.FieldLogger {
	if entry := GetCtxEntry(ctx); entry != nil && entry.Logger != nil {
		return entry.Logger
	}
	return API
}

// SetCtxLogger adds a single field to the context logger.
func SetCtxLogger(ctx context.Context, key string, value interface{}) (context.Context, logrus.FieldLogger) {
	return SetLoggerFields(ctx, logrus.Fields{key: value})
}

// SetLoggerFields adds fields to the context logger and returns the updated
// context alongside the logger.
func SetLoggerFields(ctx context.Context, fields logrus.Fields) (context.Context, logrus.FieldLogger) {
	entry := GetCtxEntry(ctx)
	if entry == nil {
		entry = &StructuredLoggerEntry{Logger: API}
		ctx = context.WithValue(ctx, CtxLoggerKey, entry)
	}
	entry.Logger = entry.Logger.WithFields(fields)
	return ctx, entry.Logger
}

func WriteErrorWithFields(ctx context.Context, msg string, fields logrus.Fields) (context.Context, logrus.FieldLogger) {
	ctx, logger := SetLoggerFields(ctx, fields)
	logger.Error(msg)
	return ctx, logger
}

func WriteWarnWithFields(ctx context.Context, msg string, fields logrus.Fields) (context.Context, logrus.FieldLogger) {
	ctx, logger := SetLoggerFields(ctx, fields)
	logger.Warn(msg)
	return ctx, logger
}

func WriteInfoWithFields(ctx context.Context, msg string, fields logrus.Fields) (context.Context, logrus.FieldLogger) {
	ctx, logger := SetLoggerFields(ctx, fields)
	logger.Info(msg)
	return ctx, logger
}
