package domain

import "time"

// EventType names a security-relevant event recorded in the access log.
type EventType string

const (
	EventLoginSuccess             EventType = "login_success"
	EventLoginFailure             EventType = "login_failure"
	EventLogout                   EventType = "logout"
	EventRegisterSuccess          EventType = "register_success"
	EventPasswordResetRequest     EventType = "password_reset_request"
	EventPasswordResetSuccess     EventType = "password_reset_success"
	EventEmailVerificationRequest EventType = "email_verification_request"
	EventEmailVerified            EventType = "email_verified"
	EventVerificationEmailResent  EventType = "verification_email_resent"
	EventListingCreated           EventType = "emprendimiento_created"
	EventListingUpdated           EventType = "emprendimiento_updated"
	EventListingDeleted           EventType = "emprendimiento_deleted"
	EventListingStatusChanged     EventType = "emprendimiento_status_changed"
	EventUserUpdatedByAdmin       EventType = "user_updated_by_admin"
	EventUserDeletedByAdmin       EventType = "user_deleted_by_admin"
	EventUserProfilePhotoDeleted  EventType = "user_profile_photo_deleted"
	EventRoleAssigned             EventType = "role_assigned"
	EventRoleRemoved              EventType = "role_removed"
)

// AccessLogEntry is an append-only audit record. AccountID is empty when the
// actor is unknown (e.g. a login attempt for a nonexistent email).
type AccessLogEntry struct {
	ID        string         `json:"id"`
	AccountID string         `json:"account_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	EventType EventType      `json:"event_type"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAccessLogEntry builds an entry for actor (possibly empty) from request metadata.
func NewAccessLogEntry(event EventType, actorID string, meta RequestMeta, details map[string]any) AccessLogEntry {
	return AccessLogEntry{
		AccountID: actorID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		EventType: event,
		Details:   details,
	}
}
