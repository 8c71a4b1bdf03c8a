package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"nearby_go/internal/coordinator"
	"nearby_go/internal/store"
)

const alertBuffer = 4

// Bridge carries store updates and coordinator alerts into the bubbletea
// program. Neither side ever blocks the caller: store updates keep only the
// latest state and alerts that cannot be queued are acknowledged at once.
type Bridge struct {
	mu     sync.Mutex
	states chan store.State
	alerts chan coordinator.Alert
	done   chan struct{}
	closed bool
	logger *log.Entry
}

func NewBridge() *Bridge {
	return &Bridge{
		states: make(chan store.State, 1),
		alerts: make(chan coordinator.Alert, alertBuffer),
		done:   make(chan struct{}),
		logger: log.WithField("component", "tui"),
	}
}

// Listen is a store.Listener.
func (b *Bridge) Listen(st store.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case <-b.states:
	default:
	}
	b.states <- st
}

// Alert implements coordinator.Alerter.
func (b *Bridge) Alert(alert coordinator.Alert) {
	b.mu.Lock()
	queued := false
	if !b.closed {
		select {
		case b.alerts <- alert:
			queued = true
		default:
		}
	}
	b.mu.Unlock()

	if queued {
		return
	}
	b.logger.WithField("title", alert.Title).Warn("alert not shown, acknowledging")
	press(alert)
}

// Close releases the program's waiters. Later alerts are acknowledged
// immediately.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

func press(alert coordinator.Alert) {
	if len(alert.Buttons) > 0 && alert.Buttons[0].OnPress != nil {
		alert.Buttons[0].OnPress()
	}
}

func waitStateCmd(b *Bridge) tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-b.states:
			return storeStateMsg{State: st}
		case <-b.done:
			return bridgeClosedMsg{}
		}
	}
}

func waitAlertCmd(b *Bridge) tea.Cmd {
	return func() tea.Msg {
		select {
		case alert := <-b.alerts:
			return alertMsg{Alert: alert}
		case <-b.done:
			return bridgeClosedMsg{}
		}
	}
}
