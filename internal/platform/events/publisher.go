// Package events publishes user lifecycle notifications to NATS.
// Publishing is fire-and-forget: it never changes the HTTP response.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SubjectUserCreated = "users.created"
	SubjectUserUpdated = "users.updated"
	SubjectUserDeleted = "users.deleted"
)

// Event is the envelope sent on every users.* subject.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher is safe to use as a nil pointer, which disables publishing.
type Publisher struct {
	conn Conn
	log  *zap.Logger
	now  func() time.Time
}

// New returns a Publisher. Pass conn=nil for a no-op stub.
func New(conn Conn, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{conn: conn, log: log, now: time.Now}
}

// Publish sends one event. Failures are logged and swallowed.
func (p *Publisher) Publish(subject, eventName, userID, requestID string, props map[string]any) {
	if p == nil || p.conn == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		RequestID:  requestID,
		OccurredAt: p.now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
