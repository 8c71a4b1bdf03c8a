package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("0")).
			Bold(true)

	tabsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true)

	metaScanningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	metaIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("0")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	selectedLineStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("255")).
				Bold(true)

	backLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("250")).
			Bold(true)

	keysStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	searchingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

var sectionNames = []string{"Platform", "Coordinator", "Scanner", "Configuration", "Keys"}

func paintLayout(layout string) string {
	if layout == "" {
		return layout
	}

	lines := strings.Split(layout, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "┌"), strings.HasPrefix(line, "├"), strings.HasPrefix(line, "└"):
			lines[i] = borderStyle.Render(line)
		case strings.Contains(line, "Nearby Scanner"):
			lines[i] = headerStyle.Render(line)
		case strings.Contains(line, "▣ ") || strings.Contains(line, "□ "):
			lines[i] = tabsStyle.Render(line)
		case strings.Contains(line, "Scanner SCANNING"):
			lines[i] = metaScanningStyle.Render(line)
		case strings.Contains(line, "Scanner IDLE"):
			lines[i] = metaIdleStyle.Render(line)
		case strings.Contains(line, "[ERROR]"):
			lines[i] = statusErrStyle.Render(line)
		case strings.Contains(line, "[ OK  ]"),
			strings.Contains(line, "[WARN ]"),
			strings.Contains(line, "[INFO ]"):
			lines[i] = statusStyle.Render(line)
		case strings.Contains(line, "│ ▶ "):
			lines[i] = selectedLineStyle.Render(line)
		case strings.Contains(line, "Back to Home"), strings.Contains(line, "Back to list"):
			lines[i] = backLineStyle.Render(line)
		case strings.Contains(line, searchingCaption):
			lines[i] = searchingStyle.Render(line)
		case isSectionLine(line):
			lines[i] = sectionStyle.Render(line)
		case strings.Contains(line, "│ ─"):
			lines[i] = borderStyle.Render(line)
		case isPanelTitleLine(line):
			lines[i] = panelTitleStyle.Render(line)
		case strings.Contains(line, "Keys:"):
			lines[i] = keysStyle.Render(line)
		case strings.HasPrefix(line, "│ "):
			lines[i] = bodyStyle.Render(line)
		}
	}

	return strings.Join(lines, "\n")
}

func isSectionLine(line string) bool {
	content := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(line), "│ "), " │"))
	for _, name := range sectionNames {
		if content == name {
			return true
		}
	}
	return false
}

func isPanelTitleLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "│ ") || !strings.HasSuffix(trimmed, " │") {
		return false
	}
	content := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(trimmed, "│ "), " │"))
	if !strings.HasPrefix(content, "[") || !strings.HasSuffix(content, "]") {
		return false
	}
	return !strings.Contains(content, "[ERROR]") &&
		!strings.Contains(content, "[WARN ]") &&
		!strings.Contains(content, "[INFO ]") &&
		!strings.Contains(content, "[ OK  ]")
}
