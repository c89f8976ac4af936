// Package outbox implements the optimistic message-send pipeline: local
// pending entries that move through sending, sent and failed states until
// they reconcile against the canonical message list or the user discards
// them.
package outbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/coachdesk/internal/logging"
	"github.com/tOgg1/coachdesk/internal/models"
)

// ErrEmptySubmission rejects a submit with no content and no attachment.
// It is raised before any network call.
var ErrEmptySubmission = errors.New("message is empty")

// Pipeline owns the pending-message list. It has a single writer (the app
// event loop); send results re-enter through MarkSent and Fail.
type Pipeline struct {
	entries []models.PendingMessage // submission order
	store   *Store
	log     zerolog.Logger
}

// NewPipeline creates a Pipeline. store may be nil, in which case failed
// entries do not survive a restart.
func NewPipeline(store *Store) *Pipeline {
	return &Pipeline{
		store: store,
		log:   logging.Component("outbox"),
	}
}

// Load restores persisted failed entries so an explicit retry survives a
// restart. Load failures are non-fatal: the pipeline starts empty.
func (p *Pipeline) Load(ctx context.Context) {
	if p.store == nil {
		return
	}
	entries, err := p.store.ListFailed(ctx)
	if err != nil {
		p.log.Debug().Err(err).Msg("restore outbox")
		return
	}
	p.entries = entries
}

// Submit validates and enqueues a message, returning the new pending entry
// in sending state. The caller clears the composer immediately and issues
// the backend send.
func (p *Pipeline) Submit(conversationID, content string, attachment *models.Attachment) (models.PendingMessage, error) {
	entry := models.PendingMessage{
		TempID:         "tmp-" + uuid.New().String(),
		IdempotencyKey: uuid.New().String(),
		ConversationID: strings.TrimSpace(conversationID),
		Content:        strings.TrimSpace(content),
		Attachment:     attachment,
		Status:         models.PendingSending,
		SubmittedAt:    time.Now().UTC(),
	}
	if entry.ConversationID == "" {
		return models.PendingMessage{}, errors.New("conversation id required")
	}
	if entry.IsEmpty() {
		return models.PendingMessage{}, ErrEmptySubmission
	}
	p.entries = append(p.entries, entry)
	return entry, nil
}

// MarkSent transitions an entry to sent after the backend accepted it. The
// entry stays visible until Reconcile confirms the canonical list carries
// it, so the message never disappears before its canonical version loads.
func (p *Pipeline) MarkSent(tempID string) bool {
	idx := p.indexOf(tempID)
	if idx < 0 {
		return false
	}
	p.entries[idx].Status = models.PendingSent
	p.entries[idx].LastError = ""
	p.deletePersisted(tempID)
	return true
}

// Fail transitions an entry to failed and returns it so the caller can
// restore the composer's content and attachment. There is no automatic
// retry; retry is always an explicit user action.
func (p *Pipeline) Fail(tempID string, cause error) (models.PendingMessage, bool) {
	idx := p.indexOf(tempID)
	if idx < 0 {
		return models.PendingMessage{}, false
	}
	p.entries[idx].Status = models.PendingFailed
	if cause != nil {
		p.entries[idx].LastError = cause.Error()
	}
	p.persistFailed(p.entries[idx])
	return p.entries[idx], true
}

// Retry transitions a failed entry back to sending, keeping its
// idempotency key so a send that actually reached the server cannot
// produce a duplicate. The entry keeps its submission-order position.
func (p *Pipeline) Retry(tempID string) (models.PendingMessage, bool) {
	idx := p.indexOf(tempID)
	if idx < 0 || p.entries[idx].Status != models.PendingFailed {
		return models.PendingMessage{}, false
	}
	p.entries[idx].Status = models.PendingSending
	p.entries[idx].LastError = ""
	return p.entries[idx], true
}

// Discard drops a failed entry at the user's request.
func (p *Pipeline) Discard(tempID string) bool {
	idx := p.indexOf(tempID)
	if idx < 0 {
		return false
	}
	p.entries = append(p.entries[:idx], p.entries[idx+1:]...)
	p.deletePersisted(tempID)
	return true
}

// Reconcile removes the pending entries whose idempotency keys the server
// echoed in the canonical list. Each submitted entry matches at most one
// canonical message even when identical content was sent in rapid
// succession. Returns the temp ids removed.
func (p *Pipeline) Reconcile(conversationID string, canonical []models.Message) []string {
	keys := make(map[string]struct{}, len(canonical))
	for _, msg := range canonical {
		if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
			keys[key] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return nil
	}

	removed := make([]string, 0, 2)
	kept := p.entries[:0]
	for _, entry := range p.entries {
		_, match := keys[entry.IdempotencyKey]
		if entry.ConversationID == conversationID && match {
			removed = append(removed, entry.TempID)
			p.deletePersisted(entry.TempID)
			continue
		}
		kept = append(kept, entry)
	}
	p.entries = kept
	return removed
}

// Pending returns the conversation's pending entries in submission order.
func (p *Pipeline) Pending(conversationID string) []models.PendingMessage {
	out := make([]models.PendingMessage, 0, len(p.entries))
	for _, entry := range p.entries {
		if entry.ConversationID == conversationID {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the total number of pending entries across conversations.
func (p *Pipeline) Len() int { return len(p.entries) }

func (p *Pipeline) indexOf(tempID string) int {
	for i := range p.entries {
		if p.entries[i].TempID == tempID {
			return i
		}
	}
	return -1
}

func (p *Pipeline) persistFailed(entry models.PendingMessage) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveFailed(context.Background(), entry); err != nil {
		p.log.Debug().Err(err).Str("temp_id", entry.TempID).Msg("persist failed entry")
	}
}

func (p *Pipeline) deletePersisted(tempID string) {
	if p.store == nil {
		return
	}
	if err := p.store.Delete(context.Background(), tempID); err != nil {
		p.log.Debug().Err(err).Str("temp_id", tempID).Msg("delete persisted entry")
	}
}
