package chatui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "coachdesk"
	center := fmt.Sprintf("%s: %s", m.cfg.Role, m.cfg.UserID)
	right := m.renderBadge()
	line := joinHeader(left, center, right, m.width)
	return style.Width(maxInt(0, m.width)).Render(line)
}

// renderBadge shows the aggregate unread total. The count is a cache
// snapshot; a trailing * marks it stale while a refetch is pending.
func (m *Model) renderBadge() string {
	total, fresh := m.sync.Total()
	if total <= 0 {
		return ""
	}
	badge := fmt.Sprintf("%d unread", total)
	if !fresh {
		badge += "*"
	}
	return badge
}

func (m *Model) renderFooter() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Footer)).
		Padding(0, 1)

	base := "[c]onversations [n]otifications [/]Search [?]Help q Quit"
	if m.showHelp {
		base = base + "  (j/k move, enter open, esc back, r retry, x discard)"
	}
	if m.toast != "" && (m.toastUntil.IsZero() || time.Now().UTC().Before(m.toastUntil)) {
		base = m.toast + "  " + base
	}
	return style.Width(maxInt(0, m.width)).Render(truncate(base, maxInt(0, m.width-2)))
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if right != "" {
			line = left + "  " + right
		}
		return truncateVis(line, width)
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return truncateVis(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}
