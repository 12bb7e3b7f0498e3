// Package queue carries inventory domain events over RabbitMQ: the
// publisher used by the services and the audit consumer that appends them
// to a log file.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.  They double as routing keys on the topic exchange.
const (
	ItemCreated       = "item.created"
	ItemUpdated       = "item.updated"
	ItemDeleted       = "item.deleted"
	StoreCreated      = "store.created"
	StoreDeleted      = "store.deleted"
	StoreAssigned     = "store.assigned"
	StoreReleased     = "store.released"
	ManagerRegistered = "manager.registered"
	ManagerLoggedOut  = "manager.logged_out"
)

// Event is published after a successful domain mutation.  It carries ids
// only, never credentials or token material beyond the revoked jti.
type Event struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	ManagerID  uuid.UUID  `json:"manager_id"`
	StoreID    *uuid.UUID `json:"store_id,omitempty"`
	ResourceID string     `json:"resource_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(typ string, managerID uuid.UUID, storeID *uuid.UUID, resourceID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ManagerID:  managerID,
		StoreID:    storeID,
		ResourceID: resourceID,
		OccurredAt: time.Now().UTC(),
	}
}

// AuditLine renders the event as a single human readable log line.
func (e Event) AuditLine() string {
	store := "-"
	if e.StoreID != nil {
		store = e.StoreID.String()
	}
	resource := e.ResourceID
	if resource == "" {
		resource = "-"
	}
	return fmt.Sprintf("[%s] %s | event_id=%s | manager_id=%s | store_id=%s | resource_id=%s\n",
		e.OccurredAt.Format(time.RFC3339), e.Type, e.ID, e.ManagerID, store, resource)
}
