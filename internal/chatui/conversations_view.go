package chatui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/coachdesk/internal/chatui/styles"
	"github.com/tOgg1/coachdesk/internal/convlist"
	"github.com/tOgg1/coachdesk/internal/models"
	"github.com/tOgg1/coachdesk/internal/unread"
)

type convPageMsg struct {
	page convlist.Page
}

type conversationsView struct {
	cfg      Config
	provider Provider
	sync     *unread.Synchronizer

	loader *convlist.Loader

	searching   bool
	searchInput string

	selected     int
	top          int
	viewportRows int
}

func newConversationsView(cfg Config, provider Provider, sync *unread.Synchronizer) *conversationsView {
	return &conversationsView{
		cfg:      cfg,
		provider: provider,
		sync:     sync,
		loader:   convlist.New(cfg.PageSize),
	}
}

func (v *conversationsView) Init() tea.Cmd {
	if v.loader.InFlight() {
		return nil
	}
	if req, ok := v.loader.SetTerm(v.loader.Term()); ok {
		return v.fetchCmd(req)
	}
	return nil
}

func (v *conversationsView) CapturesInput() bool {
	return v.searching
}

func (v *conversationsView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case convPageMsg:
		v.loader.Apply(typed.page)
		if v.loader.Len() > 0 {
			v.selected = clampInt(v.selected, 0, v.loader.Len()-1)
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

func (v *conversationsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.searching {
		return v.handleSearchKey(msg)
	}

	switch msg.String() {
	case "/":
		v.searching = true
		v.searchInput = v.loader.Term()
		return nil
	case "j", "down":
		return v.moveSelection(1)
	case "k", "up":
		return v.moveSelection(-1)
	case "g":
		v.selected = 0
		v.top = 0
		return nil
	case "G", "end":
		v.selected = maxInt(0, v.loader.Len()-1)
		v.ensureVisible()
		return v.requestNextIfAtEnd()
	case "r":
		if v.loader.LastErr() == nil {
			return nil
		}
		if req, ok := v.loader.RequestNext(); ok {
			return v.fetchCmd(req)
		}
		if req, ok := v.loader.Refresh(); ok {
			return v.fetchCmd(req)
		}
		return nil
	case "R":
		if req, ok := v.loader.Refresh(); ok {
			return v.fetchCmd(req)
		}
		return nil
	case "enter":
		items := v.loader.Items()
		if v.selected < 0 || v.selected >= len(items) {
			return nil
		}
		return openConversationCmd(items[v.selected].ID)
	}
	return nil
}

func (v *conversationsView) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		v.searching = false
		return nil
	case tea.KeyEnter:
		v.searching = false
		if req, ok := v.loader.SetTerm(v.searchInput); ok {
			v.selected = 0
			v.top = 0
			return v.fetchCmd(req)
		}
		return nil
	case tea.KeyBackspace:
		if v.searchInput != "" {
			runes := []rune(v.searchInput)
			v.searchInput = string(runes[:len(runes)-1])
		}
		return nil
	case tea.KeySpace:
		v.searchInput += " "
		return nil
	case tea.KeyRunes:
		v.searchInput += string(msg.Runes)
		return nil
	}
	return nil
}

func (v *conversationsView) moveSelection(delta int) tea.Cmd {
	if v.loader.Len() == 0 {
		v.selected = 0
		v.top = 0
		return nil
	}
	v.selected = clampInt(v.selected+delta, 0, v.loader.Len()-1)
	v.ensureVisible()
	return v.requestNextIfAtEnd()
}

// requestNextIfAtEnd is the scroll sentinel: landing on the last loaded row
// while the server reports more pages triggers the next fetch.
func (v *conversationsView) requestNextIfAtEnd() tea.Cmd {
	if v.selected < v.loader.Len()-1 {
		return nil
	}
	if req, ok := v.loader.RequestNext(); ok {
		return v.fetchCmd(req)
	}
	return nil
}

func (v *conversationsView) ensureVisible() {
	if v.loader.Len() == 0 {
		v.selected = 0
		v.top = 0
		return
	}
	v.selected = clampInt(v.selected, 0, v.loader.Len()-1)
	if v.selected < v.top {
		v.top = v.selected
	}
	visible := maxInt(1, v.viewportRows)
	if v.selected >= v.top+visible {
		v.top = v.selected - visible + 1
	}
	v.top = clampInt(v.top, 0, maxInt(0, v.loader.Len()-1))
}

func (v *conversationsView) fetchCmd(req convlist.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := v.provider.ListConversations(ctx, req.Limit, req.Offset, req.Term)
		return convPageMsg{page: convlist.Page{
			Generation: req.Generation,
			Offset:     req.Offset,
			Items:      page.Conversations,
			HasMore:    page.HasMore,
			Err:        err,
		}}
	}
}

func (v *conversationsView) View(width, height int, theme styles.Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted))
	msgStyles := styles.NewMessageStyles(theme)

	header := v.renderViewHeader(width, theme)
	lines := []string{header}

	v.viewportRows = maxInt(1, height-len(lines)-1)
	v.ensureVisible()

	items := v.loader.Items()
	counts, _ := v.sync.ConversationCounts()
	now := time.Now().UTC()

	if len(items) == 0 {
		if v.loader.InFlight() {
			lines = append(lines, muted.Render("Loading conversations…"))
		} else if v.loader.LastErr() == nil {
			lines = append(lines, muted.Render("No conversations"))
		}
	}

	end := minInt(len(items), v.top+v.viewportRows)
	for i := v.top; i < end; i++ {
		lines = append(lines, v.renderRow(items[i], counts[items[i].ID], i == v.selected, now, width, theme, msgStyles))
	}

	switch {
	case v.loader.LastErr() != nil:
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Failed))
		lines = append(lines, errStyle.Render(truncate("load failed: "+v.loader.LastErr().Error()+"  r retry", maxInt(0, width-2))))
	case v.loader.InFlight() && len(items) > 0:
		lines = append(lines, muted.Render("Loading more…"))
	case !v.loader.HasMore() && len(items) > 0:
		lines = append(lines, muted.Render("— end —"))
	}

	return strings.Join(lines, "\n")
}

func (v *conversationsView) renderViewHeader(width int, theme styles.Theme) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Base.Accent)).Render("Conversations")

	var right string
	if v.searching {
		right = "search> " + v.searchInput + "█"
	} else if term := v.loader.Term(); term != "" {
		right = fmt.Sprintf("filter: %q  (%d shown)", term, v.loader.Len())
	} else {
		right = fmt.Sprintf("%d loaded", v.loader.Len())
	}
	right = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render(right)

	gap := maxInt(1, width-lipgloss.Width(title)-lipgloss.Width(right))
	return truncateVis(title+strings.Repeat(" ", gap)+right, width)
}

func (v *conversationsView) renderRow(conv models.Conversation, unreadCount int, selected bool, now time.Time, width int, theme styles.Theme, msgStyles styles.MessageStyles) string {
	name := conv.OtherParticipant(v.cfg.UserID)

	preview := ""
	when := conv.UpdatedAt
	if conv.LastMessage != nil {
		preview = strings.ReplaceAll(conv.LastMessage.Content, "\n", " ")
		when = conv.LastMessage.CreatedAt
	}

	badge := msgStyles.RenderUnreadBadge(unreadCount)
	marker := "  "
	if selected {
		marker = "> "
	}

	left := marker + name
	if badge != "" {
		left += " " + badge
	}
	right := relativeTime(when, now)

	previewWidth := maxInt(0, width-lipgloss.Width(left)-lipgloss.Width(right)-4)
	line := left + "  " + truncate(preview, previewWidth)
	gap := maxInt(1, width-lipgloss.Width(line)-lipgloss.Width(right))
	line = truncateVis(line+strings.Repeat(" ", gap)+right, width)

	style := lipgloss.NewStyle()
	if selected {
		style = style.Bold(true).Foreground(lipgloss.Color(theme.Chrome.SelectedItem))
	} else if unreadCount > 0 {
		style = style.Foreground(lipgloss.Color(theme.Status.Unread))
	}
	return style.Render(line)
}
