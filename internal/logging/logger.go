package logging

import (
	"os"

	log "github.com/sirupsen/logrus"

	"msgbus"
)

// The standard logrus logger satisfies the bus's logging surface.
var _ msgbus.Logger = (*log.Logger)(nil)

// Init configures the process-wide logger. Unknown levels fall back to
// info.
func Init(level string) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	l, err := log.ParseLevel(level)
	if err != nil {
		l = log.InfoLevel
	}
	log.SetLevel(l)
}

func L() *log.Logger { return log.StandardLogger() }
