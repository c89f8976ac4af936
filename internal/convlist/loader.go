// Package convlist implements the incremental conversation-list pager: an
// accumulated, id-deduplicated list fed by offset/limit pages, with
// search-aware reset and stale-response discard.
package convlist

import (
	"strings"

	"github.com/tOgg1/coachdesk/internal/models"
)

// Request describes a page fetch the caller should issue. Generation ties
// the eventual response back to the search term it was issued for.
type Request struct {
	Generation int
	Offset     int
	Limit      int
	Term       string
}

// Page is a fetch result handed back to Apply.
type Page struct {
	Generation int
	Offset     int
	Items      []models.Conversation
	HasMore    bool
	Err        error
}

// Loader accumulates conversation pages. It has a single writer (the view
// event loop); fetches happen elsewhere and re-enter through Apply.
type Loader struct {
	pageSize   int
	term       string
	generation int

	// loadedGen is the generation whose pages have applied. While it trails
	// generation, the accumulated rows still belong to a previous term and
	// the offset-0 replace for the current term is owed.
	loadedGen int

	items   []models.Conversation
	index   map[string]int
	hasMore bool

	inFlight bool
	lastErr  error
}

// New creates a Loader with the given page size.
func New(pageSize int) *Loader {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Loader{
		pageSize: pageSize,
		index:    make(map[string]int),
		hasMore:  true,
	}
}

// Items returns the accumulated list in load order.
func (l *Loader) Items() []models.Conversation {
	return append([]models.Conversation(nil), l.items...)
}

// Len returns the number of accumulated conversations.
func (l *Loader) Len() int { return len(l.items) }

// Term returns the active search term.
func (l *Loader) Term() string { return l.term }

// HasMore reports whether the server indicated further pages.
func (l *Loader) HasMore() bool { return l.hasMore }

// InFlight reports whether a page request is outstanding.
func (l *Loader) InFlight() bool { return l.inFlight }

// Loaded reports whether at least one page for the current term applied.
func (l *Loader) Loaded() bool { return l.generation > 0 && l.loadedGen == l.generation }

// LastErr returns the most recent page failure for the current term, if
// any. Existing data stays intact across failures; the caller offers a
// retry affordance.
func (l *Loader) LastErr() error { return l.lastErr }

// SetTerm switches the search term. It resets the offset to zero, bumps the
// generation so any in-flight page for the previous term is discarded on
// arrival, and returns the initial page request for the new term. Setting
// the same term again is a no-op.
func (l *Loader) SetTerm(term string) (Request, bool) {
	term = strings.TrimSpace(term)
	if l.Loaded() && term == l.term {
		return Request{}, false
	}
	l.term = term
	l.generation++
	l.hasMore = true
	l.inFlight = true
	l.lastErr = nil
	return Request{Generation: l.generation, Offset: 0, Limit: l.pageSize, Term: l.term}, true
}

// RequestNext returns the next page request, advancing from the
// accumulated length. It is suppressed while a request is in flight or
// when the server reported no further pages. While no page for the
// current term has applied — the term's initial replace failed — the
// offset restarts at zero so stale rows never anchor the pager.
func (l *Loader) RequestNext() (Request, bool) {
	if l.inFlight || !l.hasMore {
		return Request{}, false
	}
	offset := len(l.items)
	if !l.Loaded() {
		offset = 0
	}
	l.inFlight = true
	l.lastErr = nil
	return Request{Generation: l.generation, Offset: offset, Limit: l.pageSize, Term: l.term}, true
}

// Refresh returns a replace-from-zero request for the current term, used
// after a failed page or when the list should be rebuilt.
func (l *Loader) Refresh() (Request, bool) {
	if l.inFlight {
		return Request{}, false
	}
	l.inFlight = true
	l.lastErr = nil
	return Request{Generation: l.generation, Offset: 0, Limit: l.pageSize, Term: l.term}, true
}

// Apply merges a fetched page. Pages from a superseded generation are
// dropped. Offset zero replaces the accumulated list; later offsets append
// new ids only, never reordering already-loaded entries. Returns whether
// the page was applied.
func (l *Loader) Apply(page Page) bool {
	if page.Generation != l.generation {
		// Response for a superseded search term; drop it on arrival.
		return false
	}
	l.inFlight = false

	if page.Err != nil {
		l.lastErr = page.Err
		return false
	}

	l.loadedGen = page.Generation
	l.lastErr = nil
	l.hasMore = page.HasMore

	if page.Offset == 0 {
		l.items = l.items[:0]
		l.index = make(map[string]int, len(page.Items))
	}
	for _, conv := range page.Items {
		if _, dup := l.index[conv.ID]; dup {
			continue
		}
		l.index[conv.ID] = len(l.items)
		l.items = append(l.items, conv)
	}
	return true
}
