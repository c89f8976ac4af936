package outbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/coachdesk/internal/models"
)

func TestPipelineSubmitRejectsEmptyMessage(t *testing.T) {
	p := NewPipeline(nil)

	_, err := p.Submit("conv-1", "   \n  ", nil)
	require.ErrorIs(t, err, ErrEmptySubmission)
	require.Equal(t, 0, p.Len())

	_, err = p.Submit("", "hello", nil)
	require.Error(t, err)
	require.Equal(t, 0, p.Len())
}

func TestPipelineSubmitAttachmentOnlyIsValid(t *testing.T) {
	p := NewPipeline(nil)

	entry, err := p.Submit("conv-1", "", &models.Attachment{URL: "https://cdn/x.png", Name: "x.png"})
	require.NoError(t, err)
	require.Equal(t, models.PendingSending, entry.Status)
	require.NotEmpty(t, entry.TempID)
	require.NotEmpty(t, entry.IdempotencyKey)
}

func TestPipelineFailReturnsEntryForComposerRestore(t *testing.T) {
	p := NewPipeline(nil)

	entry, err := p.Submit("conv-1", "hello coach", nil)
	require.NoError(t, err)

	failed, ok := p.Fail(entry.TempID, errors.New("network down"))
	require.True(t, ok)
	require.Equal(t, models.PendingFailed, failed.Status)
	require.Equal(t, "hello coach", failed.Content)
	require.Equal(t, "network down", failed.LastError)

	// The failed entry stays in the list until retried or discarded.
	pending := p.Pending("conv-1")
	require.Len(t, pending, 1)
	require.Equal(t, models.PendingFailed, pending[0].Status)
}

func TestPipelineRetryKeepsIdempotencyKeyAndPosition(t *testing.T) {
	p := NewPipeline(nil)

	first, err := p.Submit("conv-1", "first", nil)
	require.NoError(t, err)
	second, err := p.Submit("conv-1", "second", nil)
	require.NoError(t, err)

	_, ok := p.Fail(first.TempID, errors.New("timeout"))
	require.True(t, ok)

	retried, ok := p.Retry(first.TempID)
	require.True(t, ok)
	require.Equal(t, models.PendingSending, retried.Status)
	require.Equal(t, first.IdempotencyKey, retried.IdempotencyKey)
	require.Empty(t, retried.LastError)

	pending := p.Pending("conv-1")
	require.Len(t, pending, 2)
	require.Equal(t, first.TempID, pending[0].TempID, "retry keeps submission order")
	require.Equal(t, second.TempID, pending[1].TempID)
}

func TestPipelineRetryOnlyAppliesToFailedEntries(t *testing.T) {
	p := NewPipeline(nil)

	entry, err := p.Submit("conv-1", "hello", nil)
	require.NoError(t, err)

	_, ok := p.Retry(entry.TempID)
	require.False(t, ok, "sending entries cannot be retried")

	require.True(t, p.MarkSent(entry.TempID))
	_, ok = p.Retry(entry.TempID)
	require.False(t, ok, "sent entries cannot be retried")
}

func TestPipelineReconcileMatchesByIdempotencyKey(t *testing.T) {
	p := NewPipeline(nil)

	// Two rapid submissions with identical content.
	first, err := p.Submit("conv-1", "ok", nil)
	require.NoError(t, err)
	second, err := p.Submit("conv-1", "ok", nil)
	require.NoError(t, err)

	require.True(t, p.MarkSent(first.TempID))

	// The canonical list echoes only the first key: exactly that entry is
	// removed even though the contents are identical.
	canonical := []models.Message{
		{ID: "m-1", ConversationID: "conv-1", Content: "ok", IdempotencyKey: first.IdempotencyKey},
	}
	removed := p.Reconcile("conv-1", canonical)
	require.Equal(t, []string{first.TempID}, removed)

	pending := p.Pending("conv-1")
	require.Len(t, pending, 1)
	require.Equal(t, second.TempID, pending[0].TempID)
}

func TestPipelineReconcileIgnoresOtherConversations(t *testing.T) {
	p := NewPipeline(nil)

	a, err := p.Submit("conv-a", "hello", nil)
	require.NoError(t, err)
	b, err := p.Submit("conv-b", "hello", nil)
	require.NoError(t, err)

	canonical := []models.Message{
		{ID: "m-1", ConversationID: "conv-a", Content: "hello", IdempotencyKey: a.IdempotencyKey},
		// A key collision from another conversation must not remove b's entry.
		{ID: "m-2", ConversationID: "conv-a", Content: "hello", IdempotencyKey: b.IdempotencyKey},
	}
	removed := p.Reconcile("conv-a", canonical)
	require.Equal(t, []string{a.TempID}, removed)
	require.Len(t, p.Pending("conv-b"), 1)
}

func TestPipelineMarkSentKeepsEntryVisibleUntilReconcile(t *testing.T) {
	p := NewPipeline(nil)

	entry, err := p.Submit("conv-1", "hello", nil)
	require.NoError(t, err)
	require.True(t, p.MarkSent(entry.TempID))

	pending := p.Pending("conv-1")
	require.Len(t, pending, 1, "sent entries stay until the canonical list confirms them")
	require.Equal(t, models.PendingSent, pending[0].Status)

	removed := p.Reconcile("conv-1", []models.Message{
		{ID: "m-1", ConversationID: "conv-1", IdempotencyKey: entry.IdempotencyKey},
	})
	require.Equal(t, []string{entry.TempID}, removed)
	require.Empty(t, p.Pending("conv-1"))
}

func TestPipelineDiscardRemovesEntry(t *testing.T) {
	p := NewPipeline(nil)

	entry, err := p.Submit("conv-1", "oops", nil)
	require.NoError(t, err)
	_, ok := p.Fail(entry.TempID, errors.New("rejected"))
	require.True(t, ok)

	require.True(t, p.Discard(entry.TempID))
	require.Empty(t, p.Pending("conv-1"))
	require.False(t, p.Discard(entry.TempID))
}

func TestPipelinePendingOrderAcrossStates(t *testing.T) {
	p := NewPipeline(nil)

	ids := make([]string, 0, 3)
	for _, content := range []string{"one", "two", "three"} {
		entry, err := p.Submit("conv-1", content, nil)
		require.NoError(t, err)
		ids = append(ids, entry.TempID)
	}

	_, ok := p.Fail(ids[1], errors.New("x"))
	require.True(t, ok)
	require.True(t, p.MarkSent(ids[0]))

	pending := p.Pending("conv-1")
	require.Len(t, pending, 3)
	for i, id := range ids {
		require.Equal(t, id, pending[i].TempID)
	}
}
