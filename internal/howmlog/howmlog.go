// Package howmlog builds the structured logger shared by every other
// package, in the style the retrieval pack's cortile tiling manager uses
// sirupsen/logrus for daemon-style status logging.
package howmlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing to stdout with full timestamps, honouring
// HOWM_LOG_LEVEL (defaults to "info") the way small daemons in the pack
// read a single level knob from the environment.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(os.Getenv("HOWM_LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
