package convlist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/coachdesk/internal/models"
)

func makeConversations(prefix string, n int) []models.Conversation {
	out := make([]models.Conversation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Conversation{ID: fmt.Sprintf("%s-%03d", prefix, i)})
	}
	return out
}

func TestLoaderAccumulatesPagesWithoutDuplicates(t *testing.T) {
	l := New(20)

	req, ok := l.SetTerm("")
	require.True(t, ok)
	require.Equal(t, 0, req.Offset)
	require.Equal(t, 20, req.Limit)

	first := makeConversations("conv", 20)
	require.True(t, l.Apply(Page{Generation: req.Generation, Offset: 0, Items: first, HasMore: true}))
	require.Equal(t, 20, l.Len())
	require.False(t, l.InFlight())

	req2, ok := l.RequestNext()
	require.True(t, ok)
	require.Equal(t, 20, req2.Offset)

	// The server shifted by one between pages; the overlap must not
	// produce a duplicate row.
	second := append([]models.Conversation{first[19]}, makeConversations("next", 19)...)
	require.True(t, l.Apply(Page{Generation: req2.Generation, Offset: 20, Items: second, HasMore: false}))

	require.Equal(t, 39, l.Len())
	require.False(t, l.HasMore())

	seen := make(map[string]struct{})
	for _, conv := range l.Items() {
		_, dup := seen[conv.ID]
		require.False(t, dup, "duplicate id %s", conv.ID)
		seen[conv.ID] = struct{}{}
	}
}

func TestLoaderRequestNextSuppressedWhileInFlight(t *testing.T) {
	l := New(10)

	req, ok := l.SetTerm("")
	require.True(t, ok)

	_, ok = l.RequestNext()
	require.False(t, ok, "second request while the first is outstanding")

	require.True(t, l.Apply(Page{Generation: req.Generation, Offset: 0, Items: makeConversations("c", 10), HasMore: false}))

	_, ok = l.RequestNext()
	require.False(t, ok, "no further pages reported by the server")
}

func TestLoaderSetTermResetsAndDiscardsStalePages(t *testing.T) {
	l := New(10)

	req, ok := l.SetTerm("")
	require.True(t, ok)
	require.True(t, l.Apply(Page{Generation: req.Generation, Offset: 0, Items: makeConversations("all", 10), HasMore: true}))

	staleReq, ok := l.RequestNext()
	require.True(t, ok)

	// The user types a search before the page for the old term lands.
	searchReq, ok := l.SetTerm("anna")
	require.True(t, ok)
	require.Equal(t, 0, searchReq.Offset)

	require.False(t, l.Apply(Page{Generation: staleReq.Generation, Offset: 10, Items: makeConversations("stale", 10), HasMore: true}),
		"page for the superseded term must be dropped")
	require.Equal(t, 10, l.Len())
	require.True(t, l.InFlight(), "search request still outstanding")

	require.True(t, l.Apply(Page{Generation: searchReq.Generation, Offset: 0, Items: makeConversations("anna", 3), HasMore: false}))
	require.Equal(t, 3, l.Len())
	require.Equal(t, "anna-000", l.Items()[0].ID)
}

func TestLoaderSetTermSameTermIsNoop(t *testing.T) {
	l := New(10)

	req, ok := l.SetTerm("anna")
	require.True(t, ok)
	require.True(t, l.Apply(Page{Generation: req.Generation, Offset: 0, Items: makeConversations("anna", 2), HasMore: false}))

	_, ok = l.SetTerm("anna")
	require.False(t, ok)
	_, ok = l.SetTerm(" anna ")
	require.False(t, ok, "terms are compared trimmed")
}

func TestLoaderErrorKeepsLoadedData(t *testing.T) {
	l := New(10)

	req, ok := l.SetTerm("")
	require.True(t, ok)
	require.True(t, l.Apply(Page{Generation: req.Generation, Offset: 0, Items: makeConversations("c", 10), HasMore: true}))

	req2, ok := l.RequestNext()
	require.True(t, ok)
	require.False(t, l.Apply(Page{Generation: req2.Generation, Offset: 10, Err: fmt.Errorf("boom")}))

	require.Equal(t, 10, l.Len(), "loaded rows survive a failed page")
	require.Error(t, l.LastErr())
	require.False(t, l.InFlight())

	// Retry succeeds and clears the error.
	req3, ok := l.RequestNext()
	require.True(t, ok)
	require.Nil(t, l.LastErr())
	require.True(t, l.Apply(Page{Generation: req3.Generation, Offset: 10, Items: makeConversations("d", 5), HasMore: false}))
	require.Equal(t, 15, l.Len())
}

func TestLoaderRetryAfterFailedSearchReplacesOldRows(t *testing.T) {
	l := New(10)

	req, ok := l.SetTerm("")
	require.True(t, ok)
	require.True(t, l.Apply(Page{Generation: req.Generation, Offset: 0, Items: makeConversations("old", 10), HasMore: false}))

	// Search whose initial replace page fails.
	searchReq, ok := l.SetTerm("anna")
	require.True(t, ok)
	require.False(t, l.Apply(Page{Generation: searchReq.Generation, Offset: 0, Err: fmt.Errorf("offline")}))
	require.Error(t, l.LastErr())
	require.Equal(t, 10, l.Len(), "old rows keep rendering until the replace lands")

	// The retry must re-issue the replace, not page past the old rows.
	retry, ok := l.RequestNext()
	require.True(t, ok)
	require.Equal(t, 0, retry.Offset)
	require.Equal(t, "anna", retry.Term)

	require.True(t, l.Apply(Page{Generation: retry.Generation, Offset: 0, Items: makeConversations("anna", 3), HasMore: false}))
	require.Equal(t, 3, l.Len())
	require.Equal(t, "anna-000", l.Items()[0].ID)
	require.Equal(t, "anna-002", l.Items()[2].ID)
}

func TestLoaderRefreshReplacesFromZero(t *testing.T) {
	l := New(10)

	req, ok := l.SetTerm("")
	require.True(t, ok)
	require.True(t, l.Apply(Page{Generation: req.Generation, Offset: 0, Items: makeConversations("old", 10), HasMore: true}))

	refresh, ok := l.Refresh()
	require.True(t, ok)
	require.Equal(t, 0, refresh.Offset)

	require.True(t, l.Apply(Page{Generation: refresh.Generation, Offset: 0, Items: makeConversations("new", 4), HasMore: false}))
	require.Equal(t, 4, l.Len())
	require.Equal(t, "new-000", l.Items()[0].ID)
}
