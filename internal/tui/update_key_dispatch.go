package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"nearby_go/internal/coordinator"
	"nearby_go/internal/store"
)

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}

	if m.alert != nil {
		return m.updateAlertKeys(msg)
	}

	switch key {
	case "h", "0":
		m.activeScreen = screenHome
		m.dispatch(store.SetScene{Scene: store.SceneHome})
		m.status = "Home"
		return m, nil
	case "s":
		m.activeScreen = screenSettings
		m.dispatch(store.OpenSettings())
		m.status = "Settings"
		return m, nil
	case "l":
		m.activeScreen = screenLogs
		m.status = "Logs"
		return m, nil
	case "?":
		m.activeScreen = screenHelp
		m.status = "Help"
		return m, nil
	case "r":
		m.activeScreen = screenHome
		m.itemIndex = 0
		m.status = "Refreshing"
		m.pushLog("pull refresh")
		return m, refreshCmd(m.ctrl)
	}

	switch m.activeScreen {
	case screenHome:
		return m.updateHomeKeys(msg)
	case screenLogs:
		return m.updateLogKeys(msg)
	default:
		return m, nil
	}
}

func (m Model) updateAlertKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "o", "esc":
		alert := *m.alert
		m.alert = nil
		m.status = "Alert closed"
		return m, pressCmd(alert)
	}
	return m, nil
}

func (m Model) updateHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if _, open := m.openedItem(); open {
		switch msg.String() {
		case "esc", "b", "backspace":
			m.dispatch(store.CloseItem{})
			m.status = "Item closed"
		}
		return m, nil
	}

	items := m.sortedItems()
	switch msg.String() {
	case "up", "k":
		if m.itemIndex > 0 {
			m.itemIndex--
		}
	case "down", "j":
		if m.itemIndex < len(items)-1 {
			m.itemIndex++
		}
	case "enter":
		if m.itemIndex < len(items) {
			item := items[m.itemIndex]
			m.dispatch(store.OpenItem{OriginalURL: item.OriginalURL})
			m.status = "Opened " + displayTitle(item)
		}
	}
	return m, nil
}

func (m Model) updateLogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.logScroll < len(m.logs)-1 {
			m.logScroll++
		}
	case "down", "j":
		if m.logScroll > 0 {
			m.logScroll--
		}
	case "c":
		m.logs = nil
		m.logScroll = 0
		m.status = "Logs cleared"
	}
	return m, nil
}

// dispatch applies a UI intent. The store answers through the bridge, and
// the local copy is updated right away so the next key sees it.
func (m *Model) dispatch(action store.Action) {
	m.state = store.Reduce(m.state, action)
	if m.store != nil {
		m.store.Dispatch(action)
	}
}

func pressCmd(alert coordinator.Alert) tea.Cmd {
	return func() tea.Msg {
		press(alert)
		return nil
	}
}
