package chatui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/coachdesk/internal/api"
	"github.com/tOgg1/coachdesk/internal/cache"
	"github.com/tOgg1/coachdesk/internal/chatui/styles"
	"github.com/tOgg1/coachdesk/internal/models"
	"github.com/tOgg1/coachdesk/internal/routing"
)

const notificationFetchLimit = 100

type notificationsLoadedMsg struct {
	items []models.Notification
	err   error
}

var notificationLabels = map[models.NotificationType]string{
	models.NotifyMessageReceived:    "New message",
	models.NotifyWorkoutAssigned:    "Workout assigned",
	models.NotifyProgramAssigned:    "Program assigned",
	models.NotifyJoinRequest:        "Join request",
	models.NotifySessionBooked:      "Session booked",
	models.NotifyPaymentReceived:    "Payment received",
	models.NotifySystemAnnouncement: "Announcement",
}

type notificationsView struct {
	cfg      Config
	provider Provider
	store    *cache.Store
	router   *routing.Router

	items      []models.Notification
	loaded     bool
	lastErr    error
	unreadOnly bool

	selected     int
	top          int
	viewportRows int
}

func newNotificationsView(cfg Config, provider Provider, store *cache.Store, router *routing.Router) *notificationsView {
	return &notificationsView{
		cfg:      cfg,
		provider: provider,
		store:    store,
		router:   router,
	}
}

func (v *notificationsView) Init() tea.Cmd {
	return v.loadCmd()
}

func (v *notificationsView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case appTickMsg:
		// The router invalidates the feed after a successful mark-read;
		// pick that up on the next cycle.
		if v.loaded && v.store.Stale(cache.Notifications()) {
			return v.loadCmd()
		}
		return nil
	case notificationsLoadedMsg:
		if typed.err != nil {
			v.lastErr = typed.err
			return nil
		}
		v.items = typed.items
		v.loaded = true
		v.lastErr = nil
		v.store.Put(cache.Notifications(), typed.items)
		if len(v.items) > 0 {
			v.selected = clampInt(v.selected, 0, len(v.items)-1)
		} else {
			v.selected = 0
			v.top = 0
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *notificationsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down":
		v.moveSelection(1)
		return nil
	case "k", "up":
		v.moveSelection(-1)
		return nil
	case "g":
		v.selected = 0
		v.top = 0
		return nil
	case "G", "end":
		v.selected = maxInt(0, len(v.items)-1)
		v.ensureVisible()
		return nil
	case "u":
		v.unreadOnly = !v.unreadOnly
		v.selected = 0
		v.top = 0
		return v.loadCmd()
	case "R":
		return v.loadCmd()
	case "enter":
		return v.openSelected()
	}
	return nil
}

// openSelected routes the notification and navigates. Mark-read is fired by
// the router without blocking; the local copy flips immediately so the row
// renders read even before the refetch.
func (v *notificationsView) openSelected() tea.Cmd {
	if v.selected < 0 || v.selected >= len(v.items) {
		return nil
	}
	dest := v.router.Open(v.items[v.selected], v.cfg.Role)
	v.items[v.selected].IsRead = true
	return navigateCmd(dest)
}

func (v *notificationsView) moveSelection(delta int) {
	if len(v.items) == 0 {
		v.selected = 0
		v.top = 0
		return
	}
	v.selected = clampInt(v.selected+delta, 0, len(v.items)-1)
	v.ensureVisible()
}

func (v *notificationsView) ensureVisible() {
	if len(v.items) == 0 {
		v.selected = 0
		v.top = 0
		return
	}
	v.selected = clampInt(v.selected, 0, len(v.items)-1)
	if v.selected < v.top {
		v.top = v.selected
	}
	visible := maxInt(1, v.viewportRows)
	if v.selected >= v.top+visible {
		v.top = v.selected - visible + 1
	}
	v.top = clampInt(v.top, 0, len(v.items)-1)
}

func (v *notificationsView) loadCmd() tea.Cmd {
	unreadOnly := v.unreadOnly
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		items, err := v.provider.GetNotifications(ctx, api.NotificationFilter{
			UnreadOnly: unreadOnly,
			Limit:      notificationFetchLimit,
		})
		return notificationsLoadedMsg{items: items, err: err}
	}
}

func (v *notificationsView) View(width, height int, theme styles.Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted))
	msgStyles := styles.NewMessageStyles(theme)

	header := v.renderViewHeader(width, theme)
	lines := []string{header}

	v.viewportRows = maxInt(1, height-len(lines)-1)
	v.ensureVisible()

	if len(v.items) == 0 {
		if !v.loaded && v.lastErr == nil {
			lines = append(lines, muted.Render("Loading notifications…"))
		} else if v.lastErr == nil {
			lines = append(lines, muted.Render("Nothing here"))
		}
	}

	now := time.Now().UTC()
	end := minInt(len(v.items), v.top+v.viewportRows)
	for i := v.top; i < end; i++ {
		lines = append(lines, v.renderRow(v.items[i], i == v.selected, now, width, theme, msgStyles))
	}

	if v.lastErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Failed))
		lines = append(lines, errStyle.Render(truncate("load failed: "+v.lastErr.Error()+"  R retry", maxInt(0, width-2))))
	}
	return strings.Join(lines, "\n")
}

func (v *notificationsView) renderViewHeader(width int, theme styles.Theme) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Base.Accent)).Render("Notifications")
	filter := "all"
	if v.unreadOnly {
		filter = "unread"
	}
	right := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render(fmt.Sprintf("%d shown  filter:%s  u toggle", len(v.items), filter))

	gap := maxInt(1, width-lipgloss.Width(title)-lipgloss.Width(right))
	return truncateVis(title+strings.Repeat(" ", gap)+right, width)
}

func (v *notificationsView) renderRow(n models.Notification, selected bool, now time.Time, width int, theme styles.Theme, msgStyles styles.MessageStyles) string {
	marker := "  "
	if selected {
		marker = "> "
	}

	dot := msgStyles.RenderUnreadIndicator(!n.IsRead)
	if dot == "" {
		dot = " "
	}

	label := notificationLabels[n.Type]
	if label == "" {
		label = string(n.Type)
	}

	detail := n.PayloadValue("summary")
	left := fmt.Sprintf("%s%s %s", marker, dot, label)
	if detail != "" {
		left += "  " + detail
	}
	right := relativeTime(n.CreatedAt, now)

	gap := maxInt(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	line := truncateVis(left+strings.Repeat(" ", gap)+right, width)

	style := lipgloss.NewStyle()
	if selected {
		style = style.Bold(true).Foreground(lipgloss.Color(theme.Chrome.SelectedItem))
	} else if !n.IsRead {
		style = style.Foreground(lipgloss.Color(theme.Status.Unread))
	}
	return style.Render(line)
}
