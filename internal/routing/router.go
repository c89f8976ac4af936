// Package routing resolves a notification event plus the viewer's role to
// a navigation destination. Dispatch is a typed table; unmapped type/role
// pairs fall back to the notification list and never error.
package routing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/coachdesk/internal/cache"
	"github.com/tOgg1/coachdesk/internal/logging"
	"github.com/tOgg1/coachdesk/internal/models"
)

// Target is a navigation destination in the dashboard.
type Target string

const (
	TargetChat          Target = "chat"
	TargetClients       Target = "clients"
	TargetClientDetail  Target = "client-detail"
	TargetWorkouts      Target = "workouts"
	TargetPrograms      Target = "programs"
	TargetSessions      Target = "sessions"
	TargetEarnings      Target = "earnings"
	TargetNotifications Target = "notifications"
)

// Destination couples a target with the entity id it should open, when the
// notification payload carries one.
type Destination struct {
	Target   Target
	EntityID string
}

type routeKey struct {
	Type models.NotificationType
	Role models.Role
}

type route struct {
	target     Target
	payloadKey string
}

// roleAny marks a row that applies to every viewer role.
const roleAny = models.Role("*")

var routes = map[routeKey]route{
	{models.NotifyMessageReceived, roleAny}: {TargetChat, "conversation_id"},

	// Same event, different destination per viewer: a coach inspects the
	// client the workout was assigned to, the client opens their own plan.
	{models.NotifyWorkoutAssigned, models.RoleCoach}:  {TargetClientDetail, "client_id"},
	{models.NotifyWorkoutAssigned, models.RoleClient}: {TargetWorkouts, ""},

	{models.NotifyProgramAssigned, models.RoleCoach}:  {TargetClientDetail, "client_id"},
	{models.NotifyProgramAssigned, models.RoleClient}: {TargetPrograms, ""},

	{models.NotifyJoinRequest, models.RoleCoach}: {TargetClients, ""},

	{models.NotifySessionBooked, roleAny}: {TargetSessions, "session_id"},

	{models.NotifyPaymentReceived, models.RoleCoach}: {TargetEarnings, ""},
}

// Resolve maps a notification and viewer role to a destination. Types or
// type/role pairs absent from the table resolve to the generic
// notification list; Resolve never fails.
func Resolve(n models.Notification, role models.Role) Destination {
	r, ok := routes[routeKey{n.Type, role}]
	if !ok {
		r, ok = routes[routeKey{n.Type, roleAny}]
	}
	if !ok {
		return Destination{Target: TargetNotifications}
	}
	dest := Destination{Target: r.target}
	if r.payloadKey != "" {
		dest.EntityID = n.PayloadValue(r.payloadKey)
	}
	return dest
}

// Backend is the slice of the conversation service the router uses.
type Backend interface {
	MarkNotificationRead(ctx context.Context, id string) error
}

// Router resolves destinations and marks the routed notification read as a
// side effect.
type Router struct {
	api   Backend
	store *cache.Store
	log   zerolog.Logger
}

// NewRouter creates a Router.
func NewRouter(api Backend, store *cache.Store) *Router {
	return &Router{
		api:   api,
		store: store,
		log:   logging.Component("routing"),
	}
}

// Open resolves the destination and fires the mark-read call without
// blocking on it: navigation must not wait for bookkeeping. Mark-read
// failures are swallowed; the feed's next refetch retries implicitly.
func (r *Router) Open(n models.Notification, role models.Role) Destination {
	dest := Resolve(n, role)

	if !n.IsRead {
		go func(id string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.api.MarkNotificationRead(ctx, id); err != nil {
				r.log.Debug().Err(err).Str("notification_id", id).Msg("mark notification read failed")
				return
			}
			r.store.Invalidate(cache.Notifications())
		}(n.ID)
	}

	return dest
}
