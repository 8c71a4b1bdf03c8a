package tui

import (
	"fmt"
	"strings"
	"time"

	"nearby_go/internal/store"
)

func statusTag(status string) string {
	text := strings.ToLower(status)
	switch {
	case strings.Contains(text, "failed"),
		strings.Contains(text, "error"),
		strings.Contains(text, "timeout"):
		return "[ERROR]"
	case strings.Contains(text, "no items"),
		strings.Contains(text, "stopped"),
		strings.Contains(text, "closed"):
		return "[WARN ]"
	case strings.Contains(text, "started"),
		strings.Contains(text, "new item"),
		strings.Contains(text, "opened"):
		return "[ OK  ]"
	default:
		return "[INFO ]"
	}
}

func onOff(value bool) string {
	if value {
		return "ON"
	}
	return "OFF"
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

func formatDistance(meters float64) string {
	if meters <= 0 {
		return "?"
	}
	if meters < 10 {
		return fmt.Sprintf("%.1fm", meters)
	}
	return fmt.Sprintf("%.0fm", meters)
}

func displayTitle(item store.Item) string {
	if t := strings.TrimSpace(item.Title); t != "" {
		return t
	}
	if item.DisplayURL != "" {
		return item.DisplayURL
	}
	return item.OriginalURL
}

func runeLen(s string) int {
	return len([]rune(s))
}

func padRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func trimText(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// listWindow returns the [start, end) range of a list of n rows that keeps
// selected visible within limit rows.
func listWindow(n, selected, limit int) (int, int) {
	if limit <= 0 || n <= limit {
		return 0, n
	}
	start := selected - limit/2
	if start < 0 {
		start = 0
	}
	if start+limit > n {
		start = n - limit
	}
	return start, start + limit
}
