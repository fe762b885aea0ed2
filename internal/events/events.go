// Package events announces ledger changes to other systems. Publishing is
// best effort: callers log failures and carry on.
package events

//go:generate mockgen -destination=mock_events/publisher.go -package=mock_events tesoreria/internal/events Publisher

import (
	"context"
	"encoding/json"
	"time"
)

const (
	StudentCreated  = "student.created"
	StudentDeleted  = "student.deleted"
	SettingsSaved   = "settings.saved"
	PaymentRecorded = "payment.recorded"
	PaymentDeleted  = "payment.deleted"
	ExpenseRecorded = "expense.recorded"
	ExpenseDeleted  = "expense.deleted"
)

// Event is the message body. Type doubles as the routing key.
type Event struct {
	Type        string    `json:"type"`
	TreasurerID string    `json:"treasurer_id"`
	EntityID    string    `json:"entity_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func New(typ, treasurerID, entityID string, at time.Time) Event {
	return Event{Type: typ, TreasurerID: treasurerID, EntityID: entityID, OccurredAt: at.UTC()}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
