// Package audit emits append-only audit events for every state-changing
// action on the platform. Events are advisory: publishing failures are
// logged by callers and never fail the originating request.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventVoteCast           = "vote.cast"
	EventVoteRejected       = "vote.rejected"
	EventElectionCreated    = "election.created"
	EventUserRegistered     = "auth.registered"
	EventLoginSucceeded     = "auth.login"
	EventContractConfigured = "ledger.contract_configured"
)

// Event is one audit record. Actor is the user id that performed the
// action; Subject identifies what was acted on.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Actor     string            `json:"actor"`
	Subject   string            `json:"subject,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewEvent builds an event with a fresh id and the current time.
func NewEvent(eventType, actor, subject string, detail map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Subject:   subject,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers events to the audit trail.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
