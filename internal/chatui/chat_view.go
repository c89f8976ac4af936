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
	"github.com/tOgg1/coachdesk/internal/unread"
)

type chatRowKind int

const (
	rowCanonical chatRowKind = iota
	rowPending
)

// chatRow is one rendered thread entry: either a canonical server message
// or a local pending entry appended after the canonical list.
type chatRow struct {
	kind    chatRowKind
	msg     models.Message
	pending models.PendingMessage
}

type messagesLoadedMsg struct {
	conversationID string
	msgs           []models.Message
	err            error
}

type sendResultMsg struct {
	conversationID string
	tempID         string
	msg            models.Message
	err            error
}

type draftLoadedMsg struct {
	conversationID string
	content        string
}

type chatView struct {
	cfg      Config
	provider Provider
	pipeline *outbox.Pipeline
	drafts   *outbox.Store
	store    *cache.Store
	sync     *unread.Synchronizer

	conversationID string
	msgs           []models.Message
	loaded         bool
	lastErr        error

	composing bool
	input     string

	selected     int
	top          int
	viewportRows int
}

func newChatView(cfg Config, provider Provider, pipeline *outbox.Pipeline, drafts *outbox.Store, store *cache.Store, sync *unread.Synchronizer) *chatView {
	return &chatView{
		cfg:      cfg,
		provider: provider,
		pipeline: pipeline,
		drafts:   drafts,
		store:    store,
		sync:     sync,
	}
}

func (v *chatView) Init() tea.Cmd {
	if v.conversationID == "" {
		return nil
	}
	return v.loadCmd()
}

func (v *chatView) CapturesInput() bool {
	return v.composing
}

// SetConversation switches the thread. Opening a conversation marks it read
// server-side and restores any saved composer draft.
func (v *chatView) SetConversation(conversationID string) tea.Cmd {
	next := strings.TrimSpace(conversationID)
	if next == "" {
		return nil
	}
	if next == v.conversationID {
		return v.loadCmd()
	}

	saveDraft := v.saveDraftCmd(v.conversationID, v.input)

	v.conversationID = next
	v.msgs = nil
	v.loaded = false
	v.lastErr = nil
	v.input = ""
	v.composing = false
	v.selected = 0
	v.top = 0

	// The last cached snapshot renders immediately, possibly stale, while
	// the refetch is in flight.
	if cached, _ := v.store.Get(cache.Messages(next)); cached != nil {
		if msgs, ok := cached.([]models.Message); ok {
			v.msgs = msgs
			v.selected = maxInt(0, len(msgs)-1)
		}
	}

	return tea.Batch(saveDraft, v.loadCmd(), v.markReadCmd(next), v.loadDraftCmd(next))
}

func (v *chatView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case appTickMsg:
		// Authorization failures are terminal for this conversation; the
		// poll must not hammer a forbidden or vanished thread.
		if v.conversationID == "" || api.IsAuthorization(v.lastErr) {
			return nil
		}
		return v.loadCmd()
	case messagesLoadedMsg:
		v.applyLoaded(typed)
		return nil
	case sendResultMsg:
		return v.handleSendResult(typed)
	case draftLoadedMsg:
		if typed.conversationID == v.conversationID && v.input == "" && typed.content != "" {
			v.input = typed.content
			v.composing = true
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *chatView) applyLoaded(msg messagesLoadedMsg) {
	if msg.conversationID != v.conversationID {
		// Stale load for a conversation we already left.
		return
	}
	if msg.err != nil {
		v.lastErr = msg.err
		return
	}

	wasAtBottom := !v.loaded || v.selected >= len(v.rows())-1

	v.msgs = msg.msgs
	v.loaded = true
	v.lastErr = nil
	v.store.Put(cache.Messages(v.conversationID), msg.msgs)
	v.pipeline.Reconcile(v.conversationID, msg.msgs)

	rows := v.rows()
	if wasAtBottom && len(rows) > 0 {
		v.selected = len(rows) - 1
	}
	v.selected = clampInt(v.selected, 0, maxInt(0, len(rows)-1))
	v.ensureVisible(len(rows))
}

func (v *chatView) handleSendResult(msg sendResultMsg) tea.Cmd {
	if msg.err != nil {
		entry, ok := v.pipeline.Fail(msg.tempID, msg.err)
		if ok && strings.TrimSpace(v.input) == "" {
			// Hand the text back so the user can edit and resend.
			v.input = entry.Content
		}
		return nil
	}

	// Sent but kept visible until the canonical list echoes the
	// idempotency key; the refetch below completes the reconcile.
	v.pipeline.MarkSent(msg.tempID)
	v.store.Invalidate(cache.Messages(msg.conversationID))
	if msg.conversationID != v.conversationID {
		return nil
	}
	return v.loadCmd()
}

func (v *chatView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.composing {
		return v.handleComposerKey(msg)
	}

	switch msg.String() {
	case "i":
		v.composing = true
		return nil
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
		rows := v.rows()
		v.selected = maxInt(0, len(rows)-1)
		v.ensureVisible(len(rows))
		return nil
	case "r":
		return v.retrySelected()
	case "x":
		v.discardSelected()
		return nil
	case "R":
		if api.IsAuthorization(v.lastErr) {
			return nil
		}
		return v.loadCmd()
	}
	return nil
}

func (v *chatView) handleComposerKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		v.composing = false
		return v.saveDraftCmd(v.conversationID, v.input)
	case tea.KeyEnter:
		return v.submit()
	case tea.KeyCtrlJ:
		v.input += "\n"
		return nil
	case tea.KeyBackspace:
		if v.input != "" {
			runes := []rune(v.input)
			v.input = string(runes[:len(runes)-1])
		}
		return nil
	case tea.KeySpace:
		v.input += " "
		return nil
	case tea.KeyRunes:
		v.input += string(msg.Runes)
		return nil
	}
	return nil
}

// submit validates the draft, enqueues a pending entry and clears the
// composer before the network round-trip starts.
func (v *chatView) submit() tea.Cmd {
	entry, err := v.pipeline.Submit(v.conversationID, v.input, nil)
	if err != nil {
		// Empty submissions are rejected client-side; keep the composer
		// open and unchanged.
		return nil
	}
	v.input = ""
	rows := v.rows()
	v.selected = maxInt(0, len(rows)-1)
	v.ensureVisible(len(rows))
	return tea.Batch(v.sendCmd(entry), v.deleteDraftCmd(v.conversationID))
}

func (v *chatView) retrySelected() tea.Cmd {
	row, ok := v.selectedRow()
	if !ok || row.kind != rowPending || row.pending.Status != models.PendingFailed {
		return nil
	}
	entry, ok := v.pipeline.Retry(row.pending.TempID)
	if !ok {
		return nil
	}
	return v.sendCmd(entry)
}

func (v *chatView) discardSelected() {
	row, ok := v.selectedRow()
	if !ok || row.kind != rowPending || row.pending.Status != models.PendingFailed {
		return
	}
	v.pipeline.Discard(row.pending.TempID)
	rows := v.rows()
	v.selected = clampInt(v.selected, 0, maxInt(0, len(rows)-1))
	v.ensureVisible(len(rows))
}

// rows interleaves nothing: canonical messages keep server order and
// pending entries always render after them, in submission order.
func (v *chatView) rows() []chatRow {
	pending := v.pipeline.Pending(v.conversationID)
	out := make([]chatRow, 0, len(v.msgs)+len(pending))
	for _, msg := range v.msgs {
		out = append(out, chatRow{kind: rowCanonical, msg: msg})
	}
	for _, entry := range pending {
		out = append(out, chatRow{kind: rowPending, pending: entry})
	}
	return out
}

func (v *chatView) selectedRow() (chatRow, bool) {
	rows := v.rows()
	if v.selected < 0 || v.selected >= len(rows) {
		return chatRow{}, false
	}
	return rows[v.selected], true
}

func (v *chatView) moveSelection(delta int) {
	rows := v.rows()
	if len(rows) == 0 {
		v.selected = 0
		v.top = 0
		return
	}
	v.selected = clampInt(v.selected+delta, 0, len(rows)-1)
	v.ensureVisible(len(rows))
}

func (v *chatView) ensureVisible(rowCount int) {
	if rowCount == 0 {
		v.selected = 0
		v.top = 0
		return
	}
	v.selected = clampInt(v.selected, 0, rowCount-1)
	if v.selected < v.top {
		v.top = v.selected
	}
	visible := maxInt(1, v.viewportRows)
	if v.selected >= v.top+visible {
		v.top = v.selected - visible + 1
	}
	v.top = clampInt(v.top, 0, rowCount-1)
}

func (v *chatView) loadCmd() tea.Cmd {
	conversationID := v.conversationID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msgs, err := v.provider.GetMessages(ctx, conversationID)
		return messagesLoadedMsg{conversationID: conversationID, msgs: msgs, err: err}
	}
}

func (v *chatView) sendCmd(entry models.PendingMessage) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msg, err := v.provider.SendMessage(ctx, api.SendRequest{
			ConversationID: entry.ConversationID,
			Content:        entry.Content,
			Attachment:     entry.Attachment,
			IdempotencyKey: entry.IdempotencyKey,
		})
		return sendResultMsg{
			conversationID: entry.ConversationID,
			tempID:         entry.TempID,
			msg:            msg,
			err:            err,
		}
	}
}

func (v *chatView) markReadCmd(conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		v.sync.MarkRead(ctx, conversationID)
		return unreadRefreshedMsg{}
	}
}

func (v *chatView) loadDraftCmd(conversationID string) tea.Cmd {
	if v.drafts == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		content, found, err := v.drafts.Draft(ctx, conversationID)
		if err != nil || !found {
			return nil
		}
		return draftLoadedMsg{conversationID: conversationID, content: content}
	}
}

func (v *chatView) saveDraftCmd(conversationID, content string) tea.Cmd {
	if v.drafts == nil || conversationID == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_ = v.drafts.SaveDraft(ctx, conversationID, content)
		return nil
	}
}

func (v *chatView) deleteDraftCmd(conversationID string) tea.Cmd {
	if v.drafts == nil || conversationID == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_ = v.drafts.DeleteDraft(ctx, conversationID)
		return nil
	}
}

func (v *chatView) View(width, height int, theme styles.Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if v.conversationID == "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render("No conversation selected")
	}

	msgStyles := styles.NewMessageStyles(theme)
	header := v.renderViewHeader(width, theme)
	composer := v.renderComposer(width, theme)

	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(composer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	v.viewportRows = maxInt(1, bodyHeight/3)

	body := v.renderRows(width, bodyHeight, theme, msgStyles)
	content := lipgloss.JoinVertical(lipgloss.Left, header, body, composer)
	if v.lastErr != nil {
		notice := "load failed: " + truncate(v.lastErr.Error(), maxInt(0, width-22)) + "  R retry"
		if api.IsAuthorization(v.lastErr) {
			notice = "conversation unavailable: " + truncate(v.lastErr.Error(), maxInt(0, width-28))
		}
		errLine := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Failed)).Render(notice)
		content = lipgloss.JoinVertical(lipgloss.Left, content, errLine)
	}
	return content
}

func (v *chatView) renderViewHeader(width int, theme styles.Theme) string {
	left := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Base.Accent)).Render("Chat " + v.conversationID)
	pending := v.pipeline.Pending(v.conversationID)
	right := fmt.Sprintf("%d messages", len(v.msgs))
	if len(pending) > 0 {
		right = fmt.Sprintf("%d messages  %d pending", len(v.msgs), len(pending))
	}
	right = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render(right)

	gap := maxInt(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return truncateVis(left+strings.Repeat(" ", gap)+right, width)
}

func (v *chatView) renderComposer(width int, theme styles.Theme) string {
	if !v.composing {
		hint := "i compose  r retry  x discard  esc back"
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render(truncate(hint, maxInt(0, width)))
	}
	line := "> " + strings.ReplaceAll(v.input, "\n", "⏎") + "█"
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Accent)).Render(truncateVis(line, maxInt(0, width)))
}

func (v *chatView) renderRows(width, height int, theme styles.Theme, msgStyles styles.MessageStyles) string {
	rows := v.rows()
	if len(rows) == 0 {
		if !v.loaded && v.lastErr == nil {
			return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render("Loading messages…")
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render("No messages yet")
	}

	v.ensureVisible(len(rows))
	now := time.Now().UTC()
	remaining := height
	out := make([]string, 0, height)

	for i := v.top; i < len(rows) && remaining > 0; i++ {
		lines := v.renderRowCard(rows[i], width, i == v.selected, now, theme, msgStyles)
		if len(lines) > remaining {
			lines = lines[:remaining]
		}
		out = append(out, lines...)
		remaining -= len(lines)
	}
	return strings.Join(out, "\n")
}

func (v *chatView) renderRowCard(row chatRow, width int, selected bool, now time.Time, theme styles.Theme, msgStyles styles.MessageStyles) []string {
	marker := "  "
	if selected {
		marker = "> "
	}
	bodyWidth := maxInt(10, width-6)

	if row.kind == rowPending {
		header := marker + msgStyles.RenderHeader("me", true, row.pending.SubmittedAt) + " " + msgStyles.RenderStatusTag(string(row.pending.Status))
		lines := []string{truncateVis(header, width)}
		for _, line := range strings.Split(msgStyles.RenderBody(row.pending.Content, bodyWidth), "\n") {
			lines = append(lines, "  "+line)
		}
		if row.pending.Status == models.PendingFailed && row.pending.LastError != "" {
			fail := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Failed)).Render("  ✗ " + truncate(row.pending.LastError, bodyWidth))
			lines = append(lines, fail)
		}
		return lines
	}

	own := row.msg.SenderID == v.cfg.UserID
	sender := row.msg.SenderID
	if own {
		sender = "me"
	}
	timeLabel := relativeTime(row.msg.CreatedAt, now)
	if selected {
		timeLabel = row.msg.CreatedAt.UTC().Format(time.RFC3339)
	}

	header := marker + msgStyles.RenderHeader(sender, own, row.msg.CreatedAt) + " " + lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render("("+timeLabel+")")
	lines := []string{truncateVis(header, width)}
	for _, line := range strings.Split(msgStyles.RenderBody(row.msg.Content, bodyWidth), "\n") {
		lines = append(lines, "  "+line)
	}
	if row.msg.Attachment != nil {
		att := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)).Render("  📎 " + row.msg.Attachment.Name)
		lines = append(lines, att)
	}
	return lines
}
