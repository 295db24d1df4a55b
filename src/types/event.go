package types

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventDeparted    EventType = "Departed"
	EventArrived     EventType = "Arrived"
	EventSkipped     EventType = "Skipped"
	EventDoorsOpened EventType = "DoorsOpened"
	EventDoorsClosed EventType = "DoorsClosed"
	EventEmergency   EventType = "Emergency"
	EventIdle        EventType = "Idle"
)

// Event is published by a unit on every observable state change.
type Event struct {
	Type      EventType
	Kind      Kind
	Floor     int
	RequestID uuid.UUID // zero for events not tied to a request
	At        time.Time
}
