package tui

import (
	"fmt"
	"strings"
)

func (m Model) tabsLine() string {
	tabs := []struct {
		name   string
		screen screen
	}{
		{name: "Home", screen: screenHome},
		{name: "Settings", screen: screenSettings},
		{name: "Logs", screen: screenLogs},
		{name: "Help", screen: screenHelp},
	}

	parts := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		if tab.screen == m.activeScreen {
			parts = append(parts, "▣ "+strings.ToUpper(tab.name))
		} else {
			parts = append(parts, "□ "+strings.ToUpper(tab.name))
		}
	}

	return strings.Join(parts, "   ")
}

func (m Model) metaLine() string {
	scan := "IDLE"
	if m.coord.Scanning {
		scan = "SCANNING"
	}
	alert := "none"
	if m.coord.NetworkAlertOpen {
		alert = "OPEN"
	}
	return fmt.Sprintf("Scanner %s | Items %d | Alert %s | Synced %s", scan, len(m.state.Items), alert, formatShortTime(m.coordSynced))
}

func (m Model) footerLine() string {
	if m.alert != nil {
		return "[Enter/o] OK  [q] Exit"
	}

	switch m.activeScreen {
	case screenHome:
		if _, open := m.openedItem(); open {
			return "[Esc] Close  [r] Refresh  [s] Settings  [q] Exit"
		}
		return "[Up/Down] Move  [Enter] Open  [r] Refresh  [s] Settings  [q] Exit"
	case screenSettings:
		return "[h] Home  [l] Logs  [r] Refresh  [q] Exit"
	case screenLogs:
		return "[Up/Down] Scroll  [c] Clear  [h] Home  [q] Exit"
	case screenHelp:
		return "[h] Home  [q] Exit"
	default:
		return "[h] Home  [q] Exit"
	}
}

func (m Model) statusLine() string {
	return statusTag(m.status) + " " + m.status
}
