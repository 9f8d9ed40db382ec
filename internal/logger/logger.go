package logger

import (
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/sirupsen/logrus"
)

// Log is usable before Init so packages and tests can log without setup.
var Log = logrus.New()

// Init sets the level and output format of the shared logger. Unknown levels
// fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if format == "text" {
		SetTextFormatter()
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter switches to human readable output for development.
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// WithTracing returns an entry tagged with the request's tracing fields.
func WithTracing(tc tracing.Context) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"request_id":     tc.RequestID,
		"request_source": tc.RequestSource,
	})
}
