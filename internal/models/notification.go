package models

import "time"

// NotificationType is the closed enum of events the platform emits.
type NotificationType string

const (
	NotifyMessageReceived    NotificationType = "message.received"
	NotifyWorkoutAssigned    NotificationType = "workout.assigned"
	NotifyProgramAssigned    NotificationType = "program.assigned"
	NotifyJoinRequest        NotificationType = "join.request"
	NotifySessionBooked      NotificationType = "session.booked"
	NotifyPaymentReceived    NotificationType = "payment.received"
	NotifySystemAnnouncement NotificationType = "system.announcement"
)

// Notification is a platform event shown in the notification center.
// Payload keys depend on the type (e.g. "conversation_id" for
// message.received, "client_id" for join.request).
type Notification struct {
	ID        string            `json:"id"`
	Type      NotificationType  `json:"type"`
	Payload   map[string]string `json:"payload,omitempty"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

// PayloadValue returns a payload field, or "" when absent.
func (n Notification) PayloadValue(key string) string {
	if n.Payload == nil {
		return ""
	}
	return n.Payload[key]
}
