package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nearby_go/internal/store"
)

func NewModel(opts Options) Model {
	if opts.Bridge == nil {
		opts.Bridge = NewBridge()
	}
	m := Model{
		ctrl:      opts.Controller,
		store:     opts.Store,
		lifecycle: opts.Lifecycle,
		bridge:    opts.Bridge,
		scanner:   opts.Scanner,
		caps:      opts.Capabilities,
		settings:  opts.Settings,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		focused:   true,
		status:    "Ready",
		state:     store.InitialState(),
	}
	if m.store != nil {
		m.state = m.store.State()
	}
	m.syncScreen()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitStateCmd(m.bridge),
		waitAlertCmd(m.bridge),
		syncCoordCmd(m.ctrl),
	}
	if m.state.Scanning {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func syncCoordCmd(ctrl Controller) tea.Cmd {
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		return coordStateMsg{State: ctrl.Snapshot(), At: time.Now()}
	}
}

func coordTickCmd(ctrl Controller, every time.Duration) tea.Cmd {
	if ctrl == nil {
		return nil
	}
	return tea.Tick(every, func(at time.Time) tea.Msg {
		return coordStateMsg{State: ctrl.Snapshot(), At: at}
	})
}

// sortedItems is the order the list is rendered and selected in.
func (m Model) sortedItems() []store.Item {
	return store.SortedByDistance(m.state.Items)
}

func (m Model) openedItem() (store.Item, bool) {
	if m.state.OpenedItem == "" {
		return store.Item{}, false
	}
	return m.state.FindByOriginalURL(m.state.OpenedItem)
}

// syncScreen follows the store's scene for the pages it owns.
func (m *Model) syncScreen() {
	switch m.state.Scene {
	case store.SceneSettings:
		m.activeScreen = screenSettings
	case store.SceneHome:
		if m.activeScreen == screenSettings {
			m.activeScreen = screenHome
		}
	}
}

func (m *Model) clampItemIndex() {
	n := len(m.state.Items)
	if m.itemIndex >= n {
		m.itemIndex = n - 1
	}
	if m.itemIndex < 0 {
		m.itemIndex = 0
	}
}

func (m *Model) pushLog(line string) {
	entry := fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), line)
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}
