package tui

import (
	"fmt"
	"strings"
)

func (m Model) homePageLines() []string {
	lines := []string{"Nearby"}
	if m.state.Scanning {
		lines = append(lines, m.spinner.View()+" "+searchingCaption)
	} else if len(m.state.Items) == 0 {
		lines = append(lines, "No nearby items found. Press [r] to refresh.")
		return lines
	} else {
		lines = append(lines, fmt.Sprintf("%d item(s) nearby", len(m.state.Items)))
	}

	items := m.sortedItems()
	if len(items) == 0 {
		return lines
	}
	lines = append(lines, "")

	limit := m.pageBodyLimit() - (len(lines) - 1)
	start, end := listWindow(len(items), m.itemIndex, limit)
	for i := start; i < end; i++ {
		item := items[i]
		prefix := "  "
		if i == m.itemIndex {
			prefix = "▶ "
		}
		lines = append(lines, fmt.Sprintf("%s%2d. %-8s %s", prefix, i+1, formatDistance(item.Distance), displayTitle(item)))
	}
	return lines
}

func (m Model) itemPageLines() []string {
	item, _ := m.openedItem()
	lines := []string{
		"Item",
		displayTitle(item),
		"",
		"URL         : " + item.URL,
	}
	if item.DisplayURL != "" {
		lines = append(lines, "Display     : "+item.DisplayURL)
	}
	if item.Description != "" {
		lines = append(lines, "Description : "+item.Description)
	}
	lines = append(lines,
		"Distance    : "+formatDistance(item.Distance),
		"Updated     : "+formatShortTime(item.UpdatedAt),
		"",
		"◀ esc. Back to list",
	)
	return lines
}

func (m Model) settingsPageLines() []string {
	lines := []string{
		"Settings",
		"Platform",
		"│ ─ OS                  : " + m.caps.OS,
		"│ ─ Background scanning : " + onOff(m.caps.KeepsBackgroundScanningAlive),
		"",
		"Coordinator",
		"│ ─ Scanning            : " + onOff(m.coord.Scanning),
		"│ ─ Indicator           : " + onOff(m.coord.IndicatingScanning),
		"│ ─ Grace timer         : " + onOff(m.coord.GraceTimerArmed),
		"│ ─ Start pending       : " + onOff(m.coord.StartPending),
		"│ ─ Network alert       : " + onOff(m.coord.NetworkAlertOpen),
	}

	if m.scanner != nil {
		st := m.scanner.Status()
		lastErr := st.LastError
		if lastErr == "" {
			lastErr = "none"
		}
		lines = append(lines,
			"",
			"Scanner",
			"│ ─ Running             : "+onOff(st.Running),
			fmt.Sprintf("│ ─ Cycles              : %d", st.Cycles),
			fmt.Sprintf("│ ─ Sightings           : %d (resolved %d, lost %d)", st.Sightings, st.Resolved, st.Lost),
			"│ ─ Last URL            : "+st.LastURL,
			"│ ─ Last seen           : "+formatShortTime(st.LastSeenAt),
			"│ ─ Last error          : "+lastErr,
		)
	}

	if len(m.settings) > 0 {
		lines = append(lines, "", "Configuration")
		for _, s := range m.settings {
			lines = append(lines, fmt.Sprintf("│ ─ %-19s : %s", s.Label, s.Value))
		}
	}
	return lines
}

func (m Model) logsPageLines() []string {
	lines := []string{"Logs"}
	if len(m.logs) == 0 {
		return append(lines, "No events yet.")
	}
	return append(lines, m.visibleLogs(m.pageBodyLimit()-3)...)
}

// visibleLogs returns up to limit entries, newest last, shifted back by
// logScroll.
func (m Model) visibleLogs(limit int) []string {
	if limit < 1 {
		limit = 1
	}
	end := len(m.logs) - m.logScroll
	if end < 0 {
		end = 0
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	return m.logs[start:end]
}

func (m Model) helpPageLines() []string {
	return []string{
		"Help",
		"Keys",
		"│ ─ Up/Down, j/k : move through nearby items",
		"│ ─ Enter        : open the selected item",
		"│ ─ Esc          : close the open item",
		"│ ─ r            : clear items and scan again",
		"│ ─ s / h        : settings / home",
		"│ ─ l / ?        : logs / this page",
		"│ ─ q            : quit",
		"",
		"Scanning pauses when the terminal loses focus unless the platform",
		"keeps background scanning alive.",
	}
}

func (m Model) alertPageLines() []string {
	lines := []string{m.alert.Title}
	lines = append(lines, strings.Split(m.alert.Message, "\n")...)
	lines = append(lines, "")
	for i, b := range m.alert.Buttons {
		prefix := "  "
		if i == 0 {
			prefix = "▶ "
		}
		lines = append(lines, prefix+"[ "+b.Text+" ]")
	}
	return lines
}
