package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/coachdesk/internal/cache"
	"github.com/tOgg1/coachdesk/internal/models"
)

func TestResolveRoleIndependentTypes(t *testing.T) {
	n := models.Notification{
		Type:    models.NotifyMessageReceived,
		Payload: map[string]string{"conversation_id": "conv-7"},
	}

	for _, role := range []models.Role{models.RoleCoach, models.RoleClient} {
		dest := Resolve(n, role)
		require.Equal(t, TargetChat, dest.Target)
		require.Equal(t, "conv-7", dest.EntityID)
	}
}

func TestResolveRoleDependentTypes(t *testing.T) {
	n := models.Notification{
		Type:    models.NotifyWorkoutAssigned,
		Payload: map[string]string{"client_id": "client-3"},
	}

	coachDest := Resolve(n, models.RoleCoach)
	require.Equal(t, TargetClientDetail, coachDest.Target)
	require.Equal(t, "client-3", coachDest.EntityID)

	clientDest := Resolve(n, models.RoleClient)
	require.Equal(t, TargetWorkouts, clientDest.Target)
	require.Empty(t, clientDest.EntityID)
}

func TestResolveUnmappedFallsBackToNotificationList(t *testing.T) {
	cases := []struct {
		name string
		n    models.Notification
		role models.Role
	}{
		{"unknown type", models.Notification{Type: "billing.dispute"}, models.RoleCoach},
		{"announcement has no destination", models.Notification{Type: models.NotifySystemAnnouncement}, models.RoleClient},
		{"join request is coach-only", models.Notification{Type: models.NotifyJoinRequest}, models.RoleClient},
		{"payment is coach-only", models.Notification{Type: models.NotifyPaymentReceived}, models.RoleClient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dest := Resolve(tc.n, tc.role)
			require.Equal(t, TargetNotifications, dest.Target)
			require.Empty(t, dest.EntityID)
		})
	}
}

func TestResolveMissingPayloadStillNavigates(t *testing.T) {
	dest := Resolve(models.Notification{Type: models.NotifyMessageReceived}, models.RoleCoach)
	require.Equal(t, TargetChat, dest.Target)
	require.Empty(t, dest.EntityID, "missing payload field degrades to the target without an entity")
}

type stubNotificationBackend struct {
	mu     sync.Mutex
	err    error
	marked []string
	done   chan struct{}
}

func (s *stubNotificationBackend) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if s.done != nil {
			close(s.done)
			s.done = nil
		}
	}()
	if s.err != nil {
		return s.err
	}
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubNotificationBackend) markedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.marked...)
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mark-read was never fired")
	}
}

func TestOpenResolvesAndMarksRead(t *testing.T) {
	done := make(chan struct{})
	backend := &stubNotificationBackend{done: done}
	store := cache.NewStore()
	store.Put(cache.Notifications(), []models.Notification{})
	r := NewRouter(backend, store)

	n := models.Notification{
		ID:      "n-1",
		Type:    models.NotifyJoinRequest,
		Payload: map[string]string{"client_id": "client-9"},
	}
	dest := r.Open(n, models.RoleCoach)
	require.Equal(t, TargetClients, dest.Target)

	waitDone(t, done)
	require.Equal(t, []string{"n-1"}, backend.markedIDs())
	require.Eventually(t, func() bool {
		return store.Stale(cache.Notifications())
	}, 2*time.Second, 10*time.Millisecond, "feed must be invalidated after the mark")
}

func TestOpenSkipsMarkForAlreadyReadNotification(t *testing.T) {
	backend := &stubNotificationBackend{}
	r := NewRouter(backend, cache.NewStore())

	dest := r.Open(models.Notification{ID: "n-1", Type: models.NotifySessionBooked, IsRead: true}, models.RoleClient)
	require.Equal(t, TargetSessions, dest.Target)

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, backend.markedIDs())
}

func TestOpenMarkReadFailureDoesNotBlockNavigation(t *testing.T) {
	done := make(chan struct{})
	backend := &stubNotificationBackend{err: errors.New("unavailable"), done: done}
	store := cache.NewStore()
	store.Put(cache.Notifications(), []models.Notification{})
	r := NewRouter(backend, store)

	dest := r.Open(models.Notification{ID: "n-1", Type: models.NotifyMessageReceived, Payload: map[string]string{"conversation_id": "c"}}, models.RoleCoach)
	require.Equal(t, TargetChat, dest.Target)

	waitDone(t, done)
	require.False(t, store.Stale(cache.Notifications()), "a failed mark must not invalidate the feed")
}
