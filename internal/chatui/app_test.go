package chatui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/coachdesk/internal/api"
	"github.com/tOgg1/coachdesk/internal/models"
	"github.com/tOgg1/coachdesk/internal/routing"
)

// stubProvider is an in-memory conversation service for view tests.
type stubProvider struct {
	mu sync.Mutex

	conversations []models.Conversation
	hasMore       bool
	listErr       error
	lastTerm      string

	messages map[string][]models.Message
	getErr   error

	sendResult models.Message
	sendErr    error
	sendCalls  []api.SendRequest

	notifications []models.Notification
	lastFilter    api.NotificationFilter

	total  int
	counts map[string]int

	markedConversations []string
	markedNotifications []string
}

func (s *stubProvider) ListConversations(_ context.Context, limit, offset int, term string) (api.ConversationPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTerm = term
	if s.listErr != nil {
		return api.ConversationPage{}, s.listErr
	}
	end := minInt(len(s.conversations), offset+limit)
	if offset >= len(s.conversations) {
		return api.ConversationPage{HasMore: false}, nil
	}
	return api.ConversationPage{
		Conversations: s.conversations[offset:end],
		HasMore:       s.hasMore || end < len(s.conversations),
	}, nil
}

func (s *stubProvider) GetMessages(_ context.Context, conversationID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return append([]models.Message(nil), s.messages[conversationID]...), nil
}

func (s *stubProvider) SendMessage(_ context.Context, req api.SendRequest) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendCalls = append(s.sendCalls, req)
	if s.sendErr != nil {
		return models.Message{}, s.sendErr
	}
	msg := s.sendResult
	msg.IdempotencyKey = req.IdempotencyKey
	msg.ConversationID = req.ConversationID
	msg.Content = req.Content
	return msg, nil
}

func (s *stubProvider) MarkAsRead(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markedConversations = append(s.markedConversations, conversationID)
	return nil
}

func (s *stubProvider) GetUnreadCount(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, nil
}

func (s *stubProvider) GetConversationUnreadCounts(context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.counts))
	for id, n := range s.counts {
		out[id] = n
	}
	return out, nil
}

func (s *stubProvider) GetNotifications(_ context.Context, filter api.NotificationFilter) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	return append([]models.Notification(nil), s.notifications...), nil
}

func (s *stubProvider) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markedNotifications = append(s.markedNotifications, id)
	return nil
}

func testConfig() Config {
	return Config{
		UserID:       "coach-1",
		Role:         models.RoleCoach,
		Theme:        "default",
		PageSize:     20,
		PollInterval: time.Minute,
	}
}

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg, err := Config{UserID: "u-1", Role: models.RoleClient}.normalize()
	require.NoError(t, err)
	require.Equal(t, defaultPageSize, cfg.PageSize)
	require.Equal(t, defaultPollInterval, cfg.PollInterval)
	require.Equal(t, "default", cfg.Theme)
}

func TestConfigNormalizeRejectsBadInput(t *testing.T) {
	_, err := Config{Role: models.RoleCoach}.normalize()
	require.Error(t, err, "user id required")

	_, err = Config{UserID: "u", Role: "admin"}.normalize()
	require.Error(t, err)

	_, err = Config{UserID: "u", Role: models.RoleCoach, Theme: "neon"}.normalize()
	require.Error(t, err)
}

func TestModelNavigateChatOpensConversation(t *testing.T) {
	m, err := NewModel(testConfig(), &stubProvider{})
	require.NoError(t, err)
	defer m.Close()

	cmd := m.navigate(routing.Destination{Target: routing.TargetChat, EntityID: "conv-3"})
	require.NotNil(t, cmd)

	msg, ok := cmd().(openConversationMsg)
	require.True(t, ok)
	require.Equal(t, "conv-3", msg.conversationID)
}

func TestModelNavigatePushesTargetView(t *testing.T) {
	m, err := NewModel(testConfig(), &stubProvider{})
	require.NoError(t, err)
	defer m.Close()

	m.navigate(routing.Destination{Target: routing.TargetClients})
	require.Equal(t, ViewClients, m.activeViewID())

	m.navigate(routing.Destination{Target: routing.TargetNotifications})
	require.Equal(t, ViewNotifications, m.activeViewID())
}

func TestModelNavigateUnknownTargetFallsBack(t *testing.T) {
	m, err := NewModel(testConfig(), &stubProvider{})
	require.NoError(t, err)
	defer m.Close()

	m.navigate(routing.Destination{Target: routing.Target("mystery")})
	require.Equal(t, ViewNotifications, m.activeViewID())
}

func TestModelPopNeverDropsRootView(t *testing.T) {
	m, err := NewModel(testConfig(), &stubProvider{})
	require.NoError(t, err)
	defer m.Close()

	m.popView()
	require.Equal(t, ViewConversations, m.activeViewID())

	m.pushView(ViewNotifications)
	m.popView()
	require.Equal(t, ViewConversations, m.activeViewID())
}

func TestModelPushIgnoresActiveDuplicate(t *testing.T) {
	m, err := NewModel(testConfig(), &stubProvider{})
	require.NoError(t, err)
	defer m.Close()

	m.pushView(ViewNotifications)
	m.pushView(ViewNotifications)
	require.Len(t, m.viewStack, 2)
}
