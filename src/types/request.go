package types

import (
	"fmt"

	"github.com/google/uuid"
)

// Request is one trip. It is built once by NewRequest and then passed around by value.
type Request struct {
	ID               uuid.UUID
	Kind             Kind
	Origin           Origin
	OriginFloor      int
	DestinationFloor *int
	Direction        MotionState
	// Pickup marks the same-floor stop synthesized for an outside request.
	Pickup bool
}

// NewRequest derives the direction from the two floors. A nil destination is a pure pickup signal.
func NewRequest(kind Kind, origin Origin, originFloor int, destination *int) Request {
	req := Request{
		ID:          uuid.New(),
		Kind:        kind,
		Origin:      origin,
		OriginFloor: originFloor,
		Direction:   Idle,
	}
	if destination != nil {
		dest := *destination
		req.DestinationFloor = &dest
		req.Direction = DirectionBetween(originFloor, dest)
	}
	return req
}

// HasDestination reports whether the request carries a destination floor.
func (r Request) HasDestination() bool {
	return r.DestinationFloor != nil
}

// Target is the floor a unit has to stop at to serve the request.
func (r Request) Target() int {
	if r.HasDestination() {
		return *r.DestinationFloor
	}
	return r.OriginFloor
}

// PickupStop returns the arrival stop at the origin floor that lets the passenger board.
func (r Request) PickupStop() Request {
	floor := r.OriginFloor
	stop := NewRequest(r.Kind, r.Origin, floor, &floor)
	stop.Pickup = true
	return stop
}

func (r Request) String() string {
	switch {
	case r.Pickup:
		return fmt.Sprintf("Pickup(%d)", r.OriginFloor)
	case r.DestinationFloor == nil:
		return fmt.Sprintf("%s(%d)", r.Origin, r.OriginFloor)
	case r.Origin == Inside:
		return fmt.Sprintf("Inside(%d)", *r.DestinationFloor)
	}
	return fmt.Sprintf("%s(%d->%d)", r.Origin, r.OriginFloor, *r.DestinationFloor)
}
