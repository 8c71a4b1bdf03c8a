package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupWritesToFile(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	})

	path := filepath.Join(t.TempDir(), "nearby.log")
	closer, err := Setup("debug", path)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	log.WithField("component", "test").Debug("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	log.SetOutput(os.Stderr)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "component=test") {
		t.Fatalf("log line missing fields: %q", raw)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("unexpected level: %s", log.GetLevel())
	}
}

func TestSetupBadLevelFallsBack(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	closer, err := Setup("loud", "-")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer closer.Close()
	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("unexpected level: %s", log.GetLevel())
	}
}
