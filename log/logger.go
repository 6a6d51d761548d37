package log

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/scrub/constants"
)

var (
	API     logrus.FieldLogger
	Request logrus.FieldLogger
	Engine  logrus.FieldLogger

	Worker logrus.FieldLogger
	Health logrus.FieldLogger
)

func init() {
	SetupLoggers()
}

// SetupLoggers (re)creates every logger from the current configuration.
func SetupLoggers() {
	API = Logger(logrus.New(), conf.GetEnv("SCRUB_ERROR_LOG"), "api", "error")
	Request = Logger(logrus.New(), conf.GetEnv("SCRUB_REQUEST_LOG"), "api", "request")
	Engine = Logger(logrus.New(), conf.GetEnv("SCRUB_ENGINE_LOG"), "api", "engine")

	Worker = Logger(logrus.New(), conf.GetEnv("SCRUB_WORKER_ERROR_LOG"), "worker", "error")
	Health = Logger(logrus.New(), conf.GetEnv("WORKER_HEALTH_LOG"), "worker", "health")
}

// Logger configures logger to emit JSON to outputFile (stderr when empty or
// unopenable) and tags every entry with the common fields.
func Logger(logger *logrus.Logger, outputFile, application, logType string) logrus.FieldLogger {
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000000000Z07:00",
	})
	logger.SetReportCaller(true)

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": conf.GetEnv("DEPLOYMENT_TARGET"),
		"log_type":    logType,
		"source_app":  constants.SourceApp,
		"version":     constants.Version,
	})
}

func defaultFieldLogger(logType string) logrus.FieldLogger {
	return Logger(logrus.New(), "", "default", logType)
}
