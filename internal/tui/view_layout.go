package tui

import (
	"fmt"
	"strings"
)

// Rows a panel spends on its frame: the top and bottom rules, plus a title
// row and divider when the panel is titled.
const (
	frameRows = 2
	titleRows = 2
)

const (
	headerRows     = 4
	footerRows     = 1
	defaultRows    = 24
	minPageRows    = 7
	defaultColumns = 78
	minColumns     = 36
	maxColumns     = 120
)

const backHomeLine = "◀ h. Back to Home"

func (m Model) View() string {
	width := m.innerWidth()
	title, body := m.currentPage()

	return paintLayout(strings.Join([]string{
		framePanel("", m.headerLines(), width),
		framePanel(title, m.fitPageBody(body), width),
		framePanel("", []string{"Keys: " + m.footerLine()}, width),
	}, "\n"))
}

func (m Model) headerLines() []string {
	return []string{"Nearby Scanner", m.tabsLine(), m.metaLine(), m.statusLine()}
}

// currentPage splits the visible page into its title and body. An open alert
// covers whatever screen is underneath it.
func (m Model) currentPage() (string, []string) {
	var lines []string
	switch {
	case m.alert != nil:
		lines = m.alertPageLines()
	case m.activeScreen != screenHome:
		lines = append(m.secondaryPageLines(), "", backHomeLine)
	default:
		if _, open := m.openedItem(); open {
			lines = m.itemPageLines()
		} else {
			lines = m.homePageLines()
		}
	}
	if len(lines) == 0 {
		return "Nearby", nil
	}
	return lines[0], lines[1:]
}

func (m Model) secondaryPageLines() []string {
	switch m.activeScreen {
	case screenSettings:
		return m.settingsPageLines()
	case screenLogs:
		return m.logsPageLines()
	case screenHelp:
		return m.helpPageLines()
	}
	return []string{"Nearby"}
}

// fitPageBody cuts body down to the rows left between header and footer. The
// way back home stays visible when the body ends with it.
func (m Model) fitPageBody(body []string) []string {
	limit := m.pageBodyLimit()
	if len(body) <= limit {
		return body
	}

	var tail []string
	if body[len(body)-1] == backHomeLine {
		tail = []string{"", backHomeLine}
	}
	keep := max(limit-1-len(tail), 0)

	out := make([]string, 0, limit)
	out = append(out, body[:keep]...)
	out = append(out, hiddenRowsLine(len(body)-keep-len(tail)))
	return append(out, tail...)
}

func hiddenRowsLine(n int) string {
	return fmt.Sprintf("… %d more", n)
}

// pageBodyLimit is how many body rows the page panel can show.
func (m Model) pageBodyLimit() int {
	rows := m.height
	if rows <= 0 {
		rows = defaultRows
	}
	pageRows := rows - (headerRows + frameRows) - (footerRows + frameRows)
	return max(pageRows, minPageRows) - frameRows - titleRows
}

func (m Model) innerWidth() int {
	if m.width <= 0 {
		return defaultColumns
	}
	return min(max(m.width-4, minColumns), maxColumns)
}

// framePanel boxes body in a single-line border. A non-empty title becomes a
// bracketed, upper-case caption above a divider.
func framePanel(title string, body []string, width int) string {
	width = max(width, minColumns)
	rule := strings.Repeat("─", width+2)
	row := func(text string) string {
		return "│ " + padRight(trimText(text, width), width) + " │"
	}

	rows := make([]string, 0, len(body)+titleRows+frameRows)
	rows = append(rows, "┌"+rule+"┐")
	if title = strings.TrimSpace(title); title != "" {
		rows = append(rows, row("["+strings.ToUpper(title)+"]"), "├"+rule+"┤")
	}
	if len(body) == 0 {
		body = []string{""}
	}
	for _, line := range body {
		rows = append(rows, row(line))
	}
	rows = append(rows, "└"+rule+"┘")
	return strings.Join(rows, "\n")
}
