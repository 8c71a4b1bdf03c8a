package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger. file "-" logs to stderr; any
// other value is appended to. The returned closer releases the file.
func Setup(level, file string) (io.Closer, error) {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		log.WithFields(log.Fields{"level": level, "err": err}).Error("couldn't parse log level, defaulting to info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	formatter := new(log.TextFormatter)
	formatter.FullTimestamp = true

	file = strings.TrimSpace(file)
	if file == "" || file == "-" {
		log.SetFormatter(formatter)
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	formatter.DisableColors = true
	log.SetFormatter(formatter)
	log.SetOutput(f)
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
