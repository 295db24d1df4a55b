// Contains the state machine transitions for a single unit.
package elev

import (
	"time"

	"github.com/google/uuid"

	"elevdispatch/src/logging"
	"elevdispatch/src/metrics"
	"elevdispatch/src/timer"
	"elevdispatch/src/types"
)

// Session is one drain's handle on a unit. Once an emergency has been processed every call on an older
// session returns ErrPreempted without touching the unit.
type Session struct {
	unit  *Unit
	epoch uint64
}

// Begin opens a session bound to the current emergency epoch.
func (u *Unit) Begin() *Session {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return &Session{unit: u, epoch: u.epoch}
}

// Preempted reports whether an emergency happened after the session began.
func (s *Session) Preempted() bool {
	s.unit.mu.RLock()
	defer s.unit.mu.RUnlock()
	return s.unit.epoch != s.epoch
}

// SetHeading records the sweep direction the drain is about to serve.
func (s *Session) SetHeading(dir types.MotionState) error {
	u := s.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.epoch != s.epoch {
		return ErrPreempted
	}
	u.heading = dir
	return nil
}

// MoveTo carries the car to target. Nothing happens if the car is already there: no transit, no door change.
// It reports whether the car moved.
func (s *Session) MoveTo(target int) (bool, error) {
	return s.moveTo(target, uuid.Nil)
}

func (s *Session) moveTo(target int, requestID uuid.UUID) (bool, error) {
	u := s.unit
	u.mu.Lock()
	if u.epoch != s.epoch {
		u.mu.Unlock()
		return false, ErrPreempted
	}
	from := u.floor
	if target == from {
		u.mu.Unlock()
		return false, nil
	}
	closed := false
	if u.door == types.DoorOpen {
		u.door = types.DoorClosed
		closed = true
	}
	dir := types.DirectionBetween(from, target)
	u.motion = dir
	abort := u.abort
	u.mu.Unlock()

	if closed {
		u.publish(types.EventDoorsClosed, from, requestID)
	}
	u.publish(types.EventDeparted, from, requestID)
	u.logger.V(logging.DEBUG).Info("Moving", "from", from, "to", target, "direction", dir)

	distance := target - from
	if distance < 0 {
		distance = -distance
	}
	if !timer.Wait(u.clock, time.Duration(distance)*u.cfg.TravelDuration, abort) {
		return false, ErrPreempted
	}

	u.mu.Lock()
	if u.epoch != s.epoch {
		u.mu.Unlock()
		return false, ErrPreempted
	}
	u.floor = target
	u.motion = types.Idle
	u.mu.Unlock()

	metrics.SetFloor(u.kind.String(), target)
	u.publish(types.EventArrived, target, requestID)
	u.logger.V(logging.VERBOSE).Info("Arrived", "floor", target)
	return true, nil
}

// OpenDoors refuses to open while the car is in transit.
func (s *Session) OpenDoors() error {
	return s.setDoor(types.DoorOpen, uuid.Nil)
}

func (s *Session) CloseDoors() error {
	return s.setDoor(types.DoorClosed, uuid.Nil)
}

func (s *Session) setDoor(state types.DoorState, requestID uuid.UUID) error {
	u := s.unit
	u.mu.Lock()
	if u.epoch != s.epoch {
		u.mu.Unlock()
		return ErrPreempted
	}
	if state == types.DoorOpen && (u.motion == types.Up || u.motion == types.Down) {
		u.mu.Unlock()
		u.logger.Info("Cannot open doors while moving")
		return ErrInTransit
	}
	changed := u.door != state
	u.door = state
	floor := u.floor
	u.mu.Unlock()

	if !changed {
		return nil
	}
	if state == types.DoorOpen {
		u.publish(types.EventDoorsOpened, floor, requestID)
		u.logger.V(logging.DEBUG).Info("Doors open", "floor", floor)
	} else {
		u.publish(types.EventDoorsClosed, floor, requestID)
		u.logger.V(logging.DEBUG).Info("Doors closed", "floor", floor)
	}
	return nil
}

// Dwell keeps the car stationary for the configured load/unload time.
func (s *Session) Dwell() error {
	u := s.unit
	u.mu.RLock()
	if u.epoch != s.epoch {
		u.mu.RUnlock()
		return ErrPreempted
	}
	abort := u.abort
	u.mu.RUnlock()

	if !timer.Wait(u.clock, u.cfg.DwellDuration, abort) {
		return ErrPreempted
	}
	return nil
}

// ServeStop runs the whole per-stop bracket for req: move, open doors, dwell, close doors.
// A request for the floor the car is already on is skipped and reported as not served.
func (s *Session) ServeStop(req types.Request) (bool, error) {
	target := req.Target()
	moved, err := s.moveTo(target, req.ID)
	if err != nil {
		return false, err
	}
	if !moved {
		s.unit.publish(types.EventSkipped, target, req.ID)
		s.unit.logger.V(logging.VERBOSE).Info("No movement as destination is the same", "floor", target, "request", req.String())
		return false, nil
	}
	if err := s.setDoor(types.DoorOpen, req.ID); err != nil {
		return true, err
	}
	if err := s.Dwell(); err != nil {
		return true, err
	}
	return true, s.setDoor(types.DoorClosed, req.ID)
}

// Settle marks the unit idle after its policy ran dry. It does nothing on a preempted session.
func (s *Session) Settle() {
	u := s.unit
	u.mu.Lock()
	if u.epoch != s.epoch {
		u.mu.Unlock()
		return
	}
	u.motion = types.Idle
	u.heading = types.Idle
	floor := u.floor
	u.mu.Unlock()

	u.publish(types.EventIdle, floor, uuid.Nil)
	u.logger.V(logging.VERBOSE).Info("All requests have been fulfilled", "floor", floor)
}

// ProcessEmergency hard-resets the unit: pending work is cleared through pending, the car is placed at the
// ground floor with its doors open and every running session is preempted. Dropped requests are never
// re-queued. It returns the number of requests dropped. The unit is left untouched when pending is nil.
func (u *Unit) ProcessEmergency(pending Clearer) (int, error) {
	if pending == nil {
		return 0, ErrNoPendingQueue
	}
	u.mu.Lock()
	u.motion = types.Emergency
	u.epoch++
	close(u.abort)
	u.abort = make(chan struct{})

	dropped := pending.Clear()
	u.floor = u.cfg.GroundFloor
	u.motion = types.Idle
	u.heading = types.Idle
	u.door = types.DoorOpen
	u.emergency = true
	floor := u.floor
	u.mu.Unlock()

	metrics.RecordEmergency(u.kind.String(), dropped)
	metrics.SetFloor(u.kind.String(), floor)
	u.publish(types.EventEmergency, floor, uuid.Nil)
	u.logger.Info("Emergency override processed", "floor", floor, "dropped", dropped)
	return dropped, nil
}
