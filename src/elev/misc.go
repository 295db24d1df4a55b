package elev

import (
	"fmt"

	"github.com/google/uuid"

	"elevdispatch/src/types"
)

// publish never blocks; a full buffer drops the event and counts it.
func (u *Unit) publish(eventType types.EventType, floor int, requestID uuid.UUID) {
	event := types.Event{
		Type:      eventType,
		Kind:      u.kind,
		Floor:     floor,
		RequestID: requestID,
		At:        u.clock.Now(),
	}
	select {
	case u.events <- event:
	default:
		u.dropped.Add(1)
	}
}

func (s Status) String() string {
	emergency := ""
	if s.EmergencyActive {
		emergency = " EMERGENCY"
	}
	return fmt.Sprintf("%-9s floor=%-3d motion=%-5s heading=%-5s doors=%s%s",
		s.Kind, s.Floor, s.Motion, s.Heading, s.Door, emergency)
}
