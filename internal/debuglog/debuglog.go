// Package debuglog provides the diagnostic logger used across the auth
// subsystem. Output goes to stderr and is silenced unless the GHX_DEBUG
// environment variable is set, so user-facing command output stays clean.
package debuglog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	if os.Getenv("GHX_DEBUG") != "" {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.WarnLevel)
	}
	return l
}

// New returns a logger entry tagged with the originating component.
func New(component string) *logrus.Entry {
	return logger.WithField("component", component)
}
