package models

import (
	"strings"
	"time"
)

// Attachment is opaque object-storage metadata attached to a message.
// coachdesk never inspects or uploads the referenced object.
type Attachment struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
}

// Message is the server-confirmed, authoritative message record.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	SenderID       string      `json:"sender_id"`
	Content        string      `json:"content"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	// IdempotencyKey echoes the client-generated key from the send request,
	// when the message originated from this client. Reconciliation of
	// optimistic entries matches on it.
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	IsRead         bool      `json:"is_read"`
	RequiresAck    bool      `json:"requires_ack,omitempty"`
}

// PendingStatus is the lifecycle state of an optimistic local message.
type PendingStatus string

const (
	PendingSending PendingStatus = "sending"
	PendingSent    PendingStatus = "sent"
	PendingFailed  PendingStatus = "failed"
)

// PendingMessage is a client-local, not-yet-confirmed representation of an
// in-flight or retried message. It exists until it is reconciled into
// exactly one canonical Message or discarded by the user; it is never
// silently dropped.
type PendingMessage struct {
	TempID         string        `json:"temp_id"`
	IdempotencyKey string        `json:"idempotency_key"`
	ConversationID string        `json:"conversation_id"`
	Content        string        `json:"content"`
	Attachment     *Attachment   `json:"attachment,omitempty"`
	Status         PendingStatus `json:"status"`
	SubmittedAt    time.Time     `json:"submitted_at"`
	LastError      string        `json:"last_error,omitempty"`
}

// IsEmpty reports whether a submission carries neither content nor an
// attachment. Empty submissions are rejected before any network call.
func (p PendingMessage) IsEmpty() bool {
	return strings.TrimSpace(p.Content) == "" && p.Attachment == nil
}
