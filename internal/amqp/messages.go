package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names the store operation behind a PaymentEvent.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventUpdated  EventKind = "updated"
	EventTrashed  EventKind = "trashed"
	EventRestored EventKind = "restored"
	EventPurged   EventKind = "purged"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventCreated, EventUpdated, EventTrashed, EventRestored, EventPurged:
		return true
	}
	return false
}

// PaymentEvent is a lightweight change notification. It carries only the id and
// version; consumers read the full payment from the database.
type PaymentEvent struct {
	ID        int64     `json:"id"`
	Kind      EventKind `json:"kind"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPaymentEvent(id int64, kind EventKind, version int64) *PaymentEvent {
	return &PaymentEvent{
		ID:        id,
		Kind:      kind,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (e *PaymentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func PaymentEventFromJSON(data []byte) (*PaymentEvent, error) {
	var ev PaymentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.ID <= 0 {
		return nil, fmt.Errorf("payment event: invalid id %d", ev.ID)
	}
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("payment event: unknown kind %q", ev.Kind)
	}
	return &ev, nil
}
