// Package events publishes domain events about submissions and admin actions.
//
// Publishing is advisory: callers log publish failures and carry on, the
// record store stays the source of truth.
package events

import (
	"context"
	"time"
)

// Type names an event.
type Type string

const (
	SubmissionCreated       Type = "submission.created"
	SubmissionStatusChanged Type = "submission.status_changed"
	AdminLogin              Type = "admin.login"
	UserCreated             Type = "admin.user_created"
	UserUpdated             Type = "admin.user_updated"
	UserDeleted             Type = "admin.user_deleted"
	RolePermissionsUpdated  Type = "admin.role_permissions_updated"
)

// Event is transport agnostic; sinks decide the encoding.
type Event struct {
	Type       Type              `json:"type"`
	SubjectID  string            `json:"subject_id"`
	ActorID    string            `json:"actor_id,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
