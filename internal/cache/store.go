// Package cache implements the shared invalidation store backing every
// surface that observes server-computed state (unread counts, message
// lists, the navigation badge). Values are cache snapshots, never locally
// computed truth: mutations invalidate keys, and the owning surface
// refetches. Incremental local patching is deliberately avoided because the
// same count is observed by several independent surfaces and local
// arithmetic would drift from the server's view.
package cache

import (
	"fmt"
	"sync"
	"time"
)

// Key addresses one cached operation result.
type Key struct {
	Op    string
	Param string
}

func (k Key) String() string {
	if k.Param == "" {
		return k.Op
	}
	return fmt.Sprintf("%s(%s)", k.Op, k.Param)
}

// Well-known keys.
func UnreadTotal() Key          { return Key{Op: "unread-total"} }
func UnreadByConversation() Key { return Key{Op: "unread-by-conversation"} }
func NavBadge() Key             { return Key{Op: "nav-badge"} }
func Notifications() Key        { return Key{Op: "notifications"} }

func Messages(conversationID string) Key {
	return Key{Op: "messages", Param: conversationID}
}

type entry struct {
	value     any
	version   uint64
	stale     bool
	updatedAt time.Time
}

// Store holds operation-keyed snapshots. Commands fetched off the UI
// goroutine read and write it, so access is mutex-guarded.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

// Get returns the cached value and whether it is present and fresh.
// A stale entry's value is still returned so surfaces can keep rendering
// the previous snapshot while a refetch is in flight.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, !e.stale
}

// Put stores a fresh snapshot for the key and bumps its version.
func (s *Store) Put(key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.value = value
	e.version++
	e.stale = false
	e.updatedAt = time.Now().UTC()
}

// Invalidate marks every given key stale. Surfaces observing a stale key
// refetch on their next cycle. Unknown keys are recorded as stale so a
// surface that has not fetched yet still refetches first.
func (s *Store) Invalidate(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		e, ok := s.entries[key]
		if !ok {
			e = &entry{}
			s.entries[key] = e
		}
		e.stale = true
		e.version++
	}
}

// Stale reports whether the key needs a refetch: it is either absent or
// explicitly invalidated.
func (s *Store) Stale(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return true
	}
	return e.stale
}

// Version returns a counter that changes on every Put or Invalidate of the
// key, letting surfaces detect updates cheaply.
func (s *Store) Version(key Key) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return 0
	}
	return e.version
}
