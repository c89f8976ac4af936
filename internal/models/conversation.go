// Package models defines the core domain types shared across coachdesk.
package models

import "time"

// Role identifies which side of the platform the viewer is on. Several
// notification types resolve to different destinations per role.
type Role string

const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

// IsValid reports whether the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleCoach, RoleClient:
		return true
	}
	return false
}

// ConversationKind distinguishes the two thread shapes the platform supports.
type ConversationKind string

const (
	KindCoachClient  ConversationKind = "coach_client"
	KindClientClient ConversationKind = "client_client"
)

// Conversation is a persistent two-party message thread. Identity and
// membership are immutable after creation.
type Conversation struct {
	ID            string           `json:"id"`
	Kind          ConversationKind `json:"kind"`
	ParticipantA  string           `json:"participant_a"`
	ParticipantB  string           `json:"participant_b"`
	LastMessage   *Message         `json:"last_message,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// OtherParticipant returns the participant that is not the given user.
func (c Conversation) OtherParticipant(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}
