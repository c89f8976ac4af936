// Package unread keeps every surface that shows unread state (navigation
// badge, conversation list, notification chrome) consistent with the
// server. Counts are never decremented locally: marking a conversation
// read invalidates the cached counts and the owning surfaces refetch.
package unread

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/coachdesk/internal/cache"
	"github.com/tOgg1/coachdesk/internal/logging"
)

// Backend is the slice of the conversation service the synchronizer uses.
type Backend interface {
	MarkAsRead(ctx context.Context, conversationID string) error
	GetUnreadCount(ctx context.Context) (int, error)
	GetConversationUnreadCounts(ctx context.Context) (map[string]int, error)
}

// Synchronizer cascades read-state changes to every dependent cached
// count.
type Synchronizer struct {
	api   Backend
	store *cache.Store
	log   zerolog.Logger

	mu     sync.Mutex
	marked map[string]struct{}
}

// NewSynchronizer creates a Synchronizer over the given backend and cache.
func NewSynchronizer(api Backend, store *cache.Store) *Synchronizer {
	return &Synchronizer{
		api:    api,
		store:  store,
		log:    logging.Component("unread"),
		marked: make(map[string]struct{}),
	}
}

// MarkRead marks a conversation read and invalidates every cached count
// that depends on it. It is fire-and-forget: failures are swallowed and
// implicitly retried the next time the relevant surface refetches. Calling
// it again for an already-marked conversation is a no-op.
func (s *Synchronizer) MarkRead(ctx context.Context, conversationID string) {
	if conversationID == "" {
		return
	}

	s.mu.Lock()
	if _, done := s.marked[conversationID]; done {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := s.api.MarkAsRead(ctx, conversationID); err != nil {
		// Non-fatal and not surfaced; the next refetch retries implicitly.
		s.log.Debug().Err(err).Str("conversation_id", conversationID).Msg("mark read failed")
		return
	}

	s.mu.Lock()
	s.marked[conversationID] = struct{}{}
	s.mu.Unlock()

	s.store.Invalidate(cache.UnreadTotal(), cache.UnreadByConversation(), cache.NavBadge())
}

// RefreshTotal refetches the aggregate unread total into the cache, also
// feeding the navigation badge.
func (s *Synchronizer) RefreshTotal(ctx context.Context) (int, error) {
	total, err := s.api.GetUnreadCount(ctx)
	if err != nil {
		return 0, err
	}
	s.store.Put(cache.UnreadTotal(), total)
	s.store.Put(cache.NavBadge(), total)
	return total, nil
}

// RefreshConversationCounts refetches the per-conversation unread map into
// the cache. Conversations that show unread again (a new message arrived
// after the mark) are cleared from the marked set so a later MarkRead goes
// through.
func (s *Synchronizer) RefreshConversationCounts(ctx context.Context) (map[string]int, error) {
	counts, err := s.api.GetConversationUnreadCounts(ctx)
	if err != nil {
		return nil, err
	}
	s.store.Put(cache.UnreadByConversation(), counts)

	s.mu.Lock()
	for id, n := range counts {
		if n > 0 {
			delete(s.marked, id)
		}
	}
	s.mu.Unlock()

	return counts, nil
}

// Total returns the cached aggregate total and whether it is fresh.
func (s *Synchronizer) Total() (int, bool) {
	value, fresh := s.store.Get(cache.UnreadTotal())
	total, ok := value.(int)
	if !ok {
		return 0, false
	}
	return total, fresh
}

// ConversationCounts returns the cached per-conversation map and whether
// it is fresh.
func (s *Synchronizer) ConversationCounts() (map[string]int, bool) {
	value, fresh := s.store.Get(cache.UnreadByConversation())
	counts, ok := value.(map[string]int)
	if !ok {
		return nil, false
	}
	return counts, fresh
}

// StaleTotal reports whether the total needs a refetch.
func (s *Synchronizer) StaleTotal() bool {
	return s.store.Stale(cache.UnreadTotal())
}

// StaleConversationCounts reports whether the per-conversation map needs a
// refetch.
func (s *Synchronizer) StaleConversationCounts() bool {
	return s.store.Stale(cache.UnreadByConversation())
}
