package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrInvalidBackgroundMode is returned for a background-scan mode other
// than auto, on or off.
var ErrInvalidBackgroundMode = errors.New("invalid background scan mode")

const (
	ModeAuto = "auto"
	ModeOn   = "on"
	ModeOff  = "off"
)

// Capabilities are resolved once at startup and handed to the coordinator.
type Capabilities struct {
	OS string
	// KeepsBackgroundScanningAlive is set where the OS only delivers radio
	// callbacks (and so deferred notifications) while the scanner keeps
	// running in the background. iOS has no background services to spin up
	// instead.
	KeepsBackgroundScanningAlive bool
}

func Resolve(goos, mode string) (Capabilities, error) {
	goos = strings.ToLower(strings.TrimSpace(goos))
	if goos == "" {
		goos = runtime.GOOS
	}
	caps := Capabilities{OS: goos}

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAuto:
		caps.KeepsBackgroundScanningAlive = goos == "ios"
	case ModeOn, "true", "1":
		caps.KeepsBackgroundScanningAlive = true
	case ModeOff, "false", "0":
		caps.KeepsBackgroundScanningAlive = false
	default:
		return caps, fmt.Errorf("%w: %q", ErrInvalidBackgroundMode, mode)
	}
	return caps, nil
}
