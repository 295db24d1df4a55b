package elev

import (
	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"elevdispatch/src/config"
	"elevdispatch/src/metrics"
	"elevdispatch/src/types"
)

// NewUnit returns an idle unit with closed doors at the configured ground floor.
func NewUnit(kind types.Kind, cfg config.Config, opts ...Option) *Unit {
	u := &Unit{
		kind:    kind,
		cfg:     cfg,
		clock:   clock.RealClock{},
		logger:  logr.Discard(),
		floor:   cfg.GroundFloor,
		motion:  types.Idle,
		heading: types.Idle,
		door:    types.DoorClosed,
		abort:   make(chan struct{}),
		events:  make(chan types.Event, cfg.EventBuffer),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = u.logger.WithName("unit").WithValues("kind", kind.String())
	metrics.SetFloor(kind.String(), u.floor)
	return u
}

func (u *Unit) Kind() types.Kind {
	return u.kind
}

func (u *Unit) Floor() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.floor
}

func (u *Unit) Motion() types.MotionState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.motion
}

// Heading is the direction of the current sweep. It survives stops and is reset when a drain settles.
func (u *Unit) Heading() types.MotionState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.heading
}

func (u *Unit) Door() types.DoorState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.door
}

func (u *Unit) EmergencyActive() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.emergency
}

func (u *Unit) Status() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return Status{
		Kind:            u.kind,
		Floor:           u.floor,
		Motion:          u.motion,
		Heading:         u.heading,
		Door:            u.door,
		EmergencyActive: u.emergency,
	}
}

// Events streams state changes. Events are dropped, not queued, once the buffer is full.
func (u *Unit) Events() <-chan types.Event {
	return u.events
}

func (u *Unit) DroppedEvents() uint64 {
	return u.dropped.Load()
}

// Config returns the building and timing parameters the unit was built with.
func (u *Unit) Config() config.Config {
	return u.cfg
}

// View returns a query-only handle. It cannot be converted back into the Unit.
func (u *Unit) View() View {
	return unitView{u: u}
}

type unitView struct{ u *Unit }

func (v unitView) Kind() types.Kind           { return v.u.Kind() }
func (v unitView) Floor() int                 { return v.u.Floor() }
func (v unitView) Motion() types.MotionState  { return v.u.Motion() }
func (v unitView) Heading() types.MotionState { return v.u.Heading() }
func (v unitView) Door() types.DoorState      { return v.u.Door() }
func (v unitView) EmergencyActive() bool      { return v.u.EmergencyActive() }
func (v unitView) Status() Status             { return v.u.Status() }
func (v unitView) Events() <-chan types.Event { return v.u.Events() }
func (v unitView) DroppedEvents() uint64      { return v.u.DroppedEvents() }
func (v unitView) Config() config.Config      { return v.u.Config() }
