// Package audit defines the intake audit trail: who got registered, which
// streams were submitted, and which attempts were rejected. Events are emitted
// by services through a Publisher and persisted by a pluggable store.
package audit

import "time"

// Action identifies what happened.
type Action string

const (
	EventUserRegistered       Action = "user_registered"
	EventRegistrationConflict Action = "registration_conflict"
	EventRegistrationRejected Action = "registration_rejected"
	EventStreamSubmitted      Action = "stream_submitted"
)

// Event is one audit record. Subject is the cédula the event concerns.
type Event struct {
	ID      string    `json:"id"`
	Action  Action    `json:"action"`
	Subject string    `json:"subject"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}
