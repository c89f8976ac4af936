package styles

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// MessageStyles contains pre-built styles for chat row rendering.
type MessageStyles struct {
	Theme Theme

	OwnHeader   lipgloss.Style
	OtherHeader lipgloss.Style
	Timestamp   lipgloss.Style
	Body        lipgloss.Style
	Pending     lipgloss.Style
	Failed      lipgloss.Style
	Unread      lipgloss.Style
	Badge       lipgloss.Style
}

// NewMessageStyles builds a reusable style set for chat rows.
func NewMessageStyles(theme Theme) MessageStyles {
	return MessageStyles{
		Theme:       theme,
		OwnHeader:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Own)).Bold(true),
		OtherHeader: lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Other)).Bold(true),
		Timestamp:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)),
		Body:        lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Foreground)),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Message.Pending)).
			Faint(true),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Message.Failed)).
			Bold(true),
		Unread: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Status.Unread)).
			Bold(true),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Base.Background)).
			Background(lipgloss.Color(theme.Chrome.Badge)).
			Bold(true).
			Padding(0, 1),
	}
}

// RenderHeader renders a sender name plus timestamp, colored by origin.
func (s MessageStyles) RenderHeader(sender string, own bool, ts time.Time) string {
	name := strings.TrimSpace(sender)
	if name == "" {
		name = "unknown"
	}
	header := s.OtherHeader
	if own {
		header = s.OwnHeader
	}
	return header.Render(name) + " " + s.Timestamp.Render(ts.Format("15:04"))
}

// RenderBody renders wrapped body text.
func (s MessageStyles) RenderBody(body string, width int) string {
	return s.Body.Render(wrapBody(body, width))
}

// RenderStatusTag renders a delivery-state tag for a pending row.
func (s MessageStyles) RenderStatusTag(status string) string {
	switch status {
	case "sending":
		return s.Pending.Render("[sending…]")
	case "sent":
		return s.Pending.Render("[sent]")
	case "failed":
		return s.Failed.Render("[failed  r retry  x discard]")
	default:
		return ""
	}
}

// RenderUnreadBadge renders a count pill, empty for zero.
func (s MessageStyles) RenderUnreadBadge(count int) string {
	if count <= 0 {
		return ""
	}
	if count > 99 {
		return s.Badge.Render("99+")
	}
	return s.Badge.Render(fmt.Sprintf("%d", count))
}

// RenderUnreadIndicator renders a bold unread dot.
func (s MessageStyles) RenderUnreadIndicator(unread bool) string {
	if !unread {
		return ""
	}
	return s.Unread.Render("●")
}

func wrapBody(body string, width int) string {
	if width <= 0 {
		return body
	}

	parts := strings.Split(body, "\n")
	for i := range parts {
		parts[i] = wordwrap.String(parts[i], width)
	}
	return strings.Join(parts, "\n")
}
