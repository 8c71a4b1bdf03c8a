package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"nearby_go/internal/beacon"
	"nearby_go/internal/coordinator"
	"nearby_go/internal/lifecycle"
	"nearby_go/internal/platform"
	"nearby_go/internal/store"
)

type screen int

const (
	screenHome screen = iota
	screenSettings
	screenLogs
	screenHelp
)

const (
	maxLogs          = 200
	coordSyncEvery   = time.Second
	searchingCaption = "Searching for nearby items..."
)

// Controller is the part of the coordinator the UI drives.
type Controller interface {
	Refresh()
	Snapshot() coordinator.State
}

// Store is the item store the UI renders and dispatches UI intents to.
type Store interface {
	Dispatch(action store.Action)
	State() store.State
}

type LifecyclePublisher interface {
	Publish(state lifecycle.State)
}

// ScannerStatus reports replay progress for the settings page. Optional.
type ScannerStatus interface {
	Status() beacon.Status
}

// Setting is one read-only line on the settings page.
type Setting struct {
	Label string
	Value string
}

type Options struct {
	Controller   Controller
	Store        Store
	Lifecycle    LifecyclePublisher
	Bridge       *Bridge
	Scanner      ScannerStatus
	Capabilities platform.Capabilities
	Settings     []Setting
}

type storeStateMsg struct {
	State store.State
}

type alertMsg struct {
	Alert coordinator.Alert
}

type coordStateMsg struct {
	State coordinator.State
	At    time.Time
}

type refreshedMsg struct {
	State coordinator.State
}

type bridgeClosedMsg struct{}

// Model is the app state.
type Model struct {
	ctrl      Controller
	store     Store
	lifecycle LifecyclePublisher
	bridge    *Bridge
	scanner   ScannerStatus
	caps      platform.Capabilities
	settings  []Setting

	activeScreen screen
	itemIndex    int
	logScroll    int

	state       store.State
	coord       coordinator.State
	coordSynced time.Time
	alert       *coordinator.Alert
	spinner     spinner.Model
	focused     bool

	status string
	logs   []string

	width  int
	height int
}
