package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleIsValid(t *testing.T) {
	require.True(t, RoleCoach.IsValid())
	require.True(t, RoleClient.IsValid())
	require.False(t, Role("admin").IsValid())
	require.False(t, Role("").IsValid())
}

func TestConversationOtherParticipant(t *testing.T) {
	conv := Conversation{ParticipantA: "coach-1", ParticipantB: "client-2"}
	require.Equal(t, "client-2", conv.OtherParticipant("coach-1"))
	require.Equal(t, "coach-1", conv.OtherParticipant("client-2"))
	require.Equal(t, "coach-1", conv.OtherParticipant("someone-else"))
}

func TestPendingMessageIsEmpty(t *testing.T) {
	require.True(t, PendingMessage{Content: "  \n\t "}.IsEmpty())
	require.False(t, PendingMessage{Content: "hi"}.IsEmpty())
	require.False(t, PendingMessage{Attachment: &Attachment{URL: "https://cdn/x"}}.IsEmpty())
}

func TestNotificationPayloadValue(t *testing.T) {
	n := Notification{Payload: map[string]string{"conversation_id": "conv-1"}}
	require.Equal(t, "conv-1", n.PayloadValue("conversation_id"))
	require.Equal(t, "", n.PayloadValue("missing"))
	require.Equal(t, "", Notification{}.PayloadValue("conversation_id"))
}
