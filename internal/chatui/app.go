// Package chatui implements the coachdesk terminal dashboard: the
// conversation list, the chat thread with its optimistic send pipeline, and
// the notification center, composed as a view stack over a shared cache.
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
	"github.com/tOgg1/coachdesk/internal/outbox"
	"github.com/tOgg1/coachdesk/internal/routing"
	"github.com/tOgg1/coachdesk/internal/unread"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPageSize     = 20
	requestTimeout      = 15 * time.Second
)

type ViewID string

const (
	ViewConversations ViewID = "conversations"
	ViewChat          ViewID = "chat"
	ViewNotifications ViewID = "notifications"
	ViewClients       ViewID = "clients"
	ViewClientDetail  ViewID = "client-detail"
	ViewWorkouts      ViewID = "workouts"
	ViewPrograms      ViewID = "programs"
	ViewSessions      ViewID = "sessions"
	ViewEarnings      ViewID = "earnings"
)

var viewSwitchKeys = map[string]ViewID{
	"c": ViewConversations,
	"n": ViewNotifications,
	"C": ViewClients,
	"w": ViewWorkouts,
	"p": ViewPrograms,
	"s": ViewSessions,
	"e": ViewEarnings,
}

var targetViews = map[routing.Target]ViewID{
	routing.TargetChat:          ViewChat,
	routing.TargetClients:       ViewClients,
	routing.TargetClientDetail:  ViewClientDetail,
	routing.TargetWorkouts:      ViewWorkouts,
	routing.TargetPrograms:      ViewPrograms,
	routing.TargetSessions:      ViewSessions,
	routing.TargetEarnings:      ViewEarnings,
	routing.TargetNotifications: ViewNotifications,
}

// Config holds dashboard settings.
type Config struct {
	UserID       string
	Role         models.Role
	Theme        string
	PageSize     int
	PollInterval time.Duration
	OutboxPath   string
}

// Provider is the slice of the conversation service the dashboard uses.
// *api.Client satisfies it; tests substitute stubs.
type Provider interface {
	ListConversations(ctx context.Context, limit, offset int, term string) (api.ConversationPage, error)
	GetMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	SendMessage(ctx context.Context, req api.SendRequest) (models.Message, error)
	MarkAsRead(ctx context.Context, conversationID string) error
	GetUnreadCount(ctx context.Context) (int, error)
	GetConversationUnreadCounts(ctx context.Context) (map[string]int, error)
	GetNotifications(ctx context.Context, filter api.NotificationFilter) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// Model is the root bubbletea model. It owns the send pipeline and the
// unread synchronizer so navigating away from a conversation never drops
// pending entries.
type Model struct {
	cfg      Config
	provider Provider
	store    *cache.Store
	pipeline *outbox.Pipeline
	outboxDB *outbox.Store
	sync     *unread.Synchronizer
	router   *routing.Router
	theme    styles.Theme

	width    int
	height   int
	showHelp bool

	toast      string
	toastUntil time.Time

	viewStack []ViewID
	views     map[ViewID]viewModel
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme styles.Theme) string
}

// inputCapturer is implemented by views that own the keyboard while a text
// field is focused; global shortcuts are suspended for them.
type inputCapturer interface {
	CapturesInput() bool
}

type pushViewMsg struct {
	id ViewID
}

type popViewMsg struct{}

type openConversationMsg struct {
	conversationID string
}

type navigateMsg struct {
	dest routing.Destination
}

type appTickMsg struct{}

type unreadRefreshedMsg struct {
	err error
}

func pushViewCmd(id ViewID) tea.Cmd {
	return func() tea.Msg {
		return pushViewMsg{id: id}
	}
}

func popViewCmd() tea.Cmd {
	return func() tea.Msg {
		return popViewMsg{}
	}
}

func openConversationCmd(conversationID string) tea.Cmd {
	return func() tea.Msg {
		return openConversationMsg{conversationID: conversationID}
	}
}

func navigateCmd(dest routing.Destination) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{dest: dest}
	}
}

func appTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return appTickMsg{}
	})
}

// NewModel builds the root model and its views.
func NewModel(cfg Config, provider Provider) (*Model, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("missing provider")
	}

	store := cache.NewStore()

	var outboxDB *outbox.Store
	if normalized.OutboxPath != "" {
		outboxDB, err = outbox.OpenStore(normalized.OutboxPath)
		if err != nil {
			// Non-fatal: sends still work, failed entries just will not
			// survive a restart.
			outboxDB = nil
		}
	}

	pipeline := outbox.NewPipeline(outboxDB)
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	pipeline.Load(ctx)
	cancel()

	m := &Model{
		cfg:       normalized,
		provider:  provider,
		store:     store,
		pipeline:  pipeline,
		outboxDB:  outboxDB,
		sync:      unread.NewSynchronizer(provider, store),
		router:    routing.NewRouter(provider, store),
		theme:     styles.Themes[normalized.Theme],
		viewStack: []ViewID{ViewConversations},
		views:     make(map[ViewID]viewModel),
	}
	m.initViews()
	return m, nil
}

// Run starts the dashboard and blocks until it exits.
func Run(cfg Config, provider Provider) error {
	model, err := NewModel(cfg, provider)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Close releases view and store resources.
func (m *Model) Close() error {
	for _, view := range m.views {
		if closer, ok := view.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	if m == nil || m.outboxDB == nil {
		return nil
	}
	return m.outboxDB.Close()
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshUnreadCmd(), appTickCmd(m.cfg.PollInterval)}
	if view := m.activeView(); view != nil {
		cmds = append(cmds, view.Init())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case appTickMsg:
		cmds := []tea.Cmd{appTickCmd(m.cfg.PollInterval)}
		if m.sync.StaleTotal() || m.sync.StaleConversationCounts() {
			cmds = append(cmds, m.refreshUnreadCmd())
		}
		if view := m.activeView(); view != nil {
			cmds = append(cmds, view.Update(msg))
		}
		return m, tea.Batch(cmds...)
	case unreadRefreshedMsg:
		// Counts are already in the cache; views pick them up on render.
		if typed.err != nil {
			m.setToast("sync failed, retrying")
		}
		return m, nil
	case openConversationMsg:
		m.pushView(ViewChat)
		if view, ok := m.views[ViewChat].(interface {
			SetConversation(string) tea.Cmd
		}); ok {
			return m, view.SetConversation(typed.conversationID)
		}
		return m, nil
	case navigateMsg:
		return m, m.navigate(typed.dest)
	case pushViewMsg:
		m.pushView(typed.id)
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil
	case popViewMsg:
		m.popView()
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil
	case tea.KeyMsg:
		if capturer, ok := m.activeView().(inputCapturer); ok && capturer.CapturesInput() {
			break
		}
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	}

	if active := m.activeView(); active != nil {
		return m, active.Update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	if active := m.activeView(); active != nil {
		header := m.renderHeader()
		footer := m.renderFooter()
		contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
		if contentHeight < 0 {
			contentHeight = 0
		}
		body := active.View(m.width, contentHeight, m.theme)
		return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	}
	return "no active view"
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit, true
	case "?":
		m.showHelp = !m.showHelp
		return nil, true
	case "esc", "backspace":
		if len(m.viewStack) > 1 {
			m.popView()
			if view := m.activeView(); view != nil {
				return view.Init(), true
			}
			return nil, true
		}
		return nil, false
	}

	if next, ok := viewSwitchKeys[msg.String()]; ok {
		m.pushView(next)
		if view := m.activeView(); view != nil {
			return view.Init(), true
		}
		return nil, true
	}
	return nil, false
}

func (m *Model) navigate(dest routing.Destination) tea.Cmd {
	if dest.Target == routing.TargetChat && dest.EntityID != "" {
		return openConversationCmd(dest.EntityID)
	}

	id, ok := targetViews[dest.Target]
	if !ok {
		id = ViewNotifications
	}
	m.pushView(id)
	view := m.activeView()
	if view == nil {
		return nil
	}
	if setter, ok := view.(interface {
		SetEntity(string) tea.Cmd
	}); ok && dest.EntityID != "" {
		return tea.Batch(view.Init(), setter.SetEntity(dest.EntityID))
	}
	return view.Init()
}

// refreshUnreadCmd refetches both unread snapshots off the UI goroutine.
func (m *Model) refreshUnreadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := m.sync.RefreshTotal(ctx); err != nil {
			return unreadRefreshedMsg{err: err}
		}
		_, err := m.sync.RefreshConversationCounts(ctx)
		return unreadRefreshedMsg{err: err}
	}
}

func (m *Model) activeView() viewModel {
	return m.views[m.activeViewID()]
}

func (m *Model) activeViewID() ViewID {
	if len(m.viewStack) == 0 {
		return ViewConversations
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *Model) pushView(id ViewID) {
	if id == "" {
		return
	}
	if _, ok := m.views[id]; !ok {
		return
	}
	if m.activeViewID() == id {
		return
	}
	m.viewStack = append(m.viewStack, id)
}

func (m *Model) popView() {
	if len(m.viewStack) <= 1 {
		return
	}
	m.viewStack = m.viewStack[:len(m.viewStack)-1]
}

func (m *Model) setToast(text string) {
	m.toast = strings.TrimSpace(text)
	m.toastUntil = time.Now().UTC().Add(2 * time.Second)
}

func (m *Model) initViews() {
	m.views[ViewConversations] = newConversationsView(m.cfg, m.provider, m.sync)
	m.views[ViewChat] = newChatView(m.cfg, m.provider, m.pipeline, m.outboxDB, m.store, m.sync)
	m.views[ViewNotifications] = newNotificationsView(m.cfg, m.provider, m.store, m.router)
	m.views[ViewClients] = newPlaceholderView(ViewClients, "Clients")
	m.views[ViewClientDetail] = newPlaceholderView(ViewClientDetail, "Client")
	m.views[ViewWorkouts] = newPlaceholderView(ViewWorkouts, "Workouts")
	m.views[ViewPrograms] = newPlaceholderView(ViewPrograms, "Programs")
	m.views[ViewSessions] = newPlaceholderView(ViewSessions, "Sessions")
	m.views[ViewEarnings] = newPlaceholderView(ViewEarnings, "Earnings")
}

func (c Config) normalize() (Config, error) {
	c.UserID = strings.TrimSpace(c.UserID)
	if c.UserID == "" {
		return Config{}, fmt.Errorf("user id required")
	}
	if !c.Role.IsValid() {
		return Config{}, fmt.Errorf("invalid role %q", c.Role)
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if strings.TrimSpace(c.Theme) == "" {
		c.Theme = "default"
	}
	if _, ok := styles.Themes[c.Theme]; !ok {
		return Config{}, fmt.Errorf("invalid theme %q", c.Theme)
	}
	return c, nil
}

type placeholderView struct {
	id     ViewID
	title  string
	entity string
}

func newPlaceholderView(id ViewID, title string) *placeholderView {
	return &placeholderView{
		id:    id,
		title: title,
	}
}

func (p *placeholderView) Init() tea.Cmd {
	return nil
}

func (p *placeholderView) SetEntity(id string) tea.Cmd {
	p.entity = strings.TrimSpace(id)
	return nil
}

func (p *placeholderView) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if keyMsg.String() == "backspace" || keyMsg.String() == "esc" {
		return popViewCmd()
	}
	return nil
}

func (p *placeholderView) View(_ int, _ int, _ styles.Theme) string {
	if p.entity != "" {
		return fmt.Sprintf("%s view (%s)", p.title, p.entity)
	}
	return fmt.Sprintf("%s view", p.title)
}
