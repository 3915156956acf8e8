package logger

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

var base = log.New()

func init() {
	base.Out = os.Stdout
	base.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	base.SetLevel(log.InfoLevel)
}

// SetLevel parses a logrus level name; unknown names leave the level unchanged.
func SetLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		base.Warnf("unknown log level %q, keeping %s", level, base.GetLevel())
		return
	}
	base.SetLevel(lvl)
}

// For returns an entry tagged with the component name.
func For(component string) *log.Entry {
	return base.WithField("component", component)
}

// Logger exposes the underlying logger, e.g. for tests that capture output.
func Logger() *log.Logger {
	return base
}
