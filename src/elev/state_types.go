// State types are kept next to the Unit so its methods can reach them without exporting internals.
package elev

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"elevdispatch/src/config"
	"elevdispatch/src/types"
)

var (
	// ErrPreempted is returned to a drain whose session was cut short by an emergency override.
	ErrPreempted = errors.New("preempted by emergency override")
	// ErrInTransit is returned when doors are operated while the car is between floors.
	ErrInTransit = errors.New("car is in transit")
	// ErrNoPendingQueue is returned by ProcessEmergency when it is given nothing to clear.
	ErrNoPendingQueue = errors.New("emergency needs the pending queue to clear")
)

// Unit is the physical core shared by every elevator kind: floor, motion, doors and the emergency flag.
// All mutation goes through a Session or ProcessEmergency; queries are safe from any goroutine.
type Unit struct {
	kind   types.Kind
	cfg    config.Config
	clock  clock.Clock
	logger logr.Logger

	mu        sync.RWMutex
	floor     int
	motion    types.MotionState
	heading   types.MotionState
	door      types.DoorState
	emergency bool
	// epoch is bumped by every emergency; sessions from an older epoch can no longer commit.
	epoch uint64
	abort chan struct{}

	events  chan types.Event
	dropped atomic.Uint64
}

// View is the read-only side of a Unit.
type View interface {
	Kind() types.Kind
	Floor() int
	Motion() types.MotionState
	Heading() types.MotionState
	Door() types.DoorState
	EmergencyActive() bool
	Status() Status
	Events() <-chan types.Event
	DroppedEvents() uint64
	Config() config.Config
}

var _ View = &Unit{}

// Status is a consistent snapshot of a unit.
type Status struct {
	Kind            types.Kind
	Floor           int
	Motion          types.MotionState
	Heading         types.MotionState
	Door            types.DoorState
	EmergencyActive bool
}

// Clearer discards all pending work and reports how much was dropped.
type Clearer interface {
	Clear() int
}

type Option func(*Unit)

func WithClock(clk clock.Clock) Option {
	return func(u *Unit) { u.clock = clk }
}

func WithLogger(logger logr.Logger) Option {
	return func(u *Unit) { u.logger = logger }
}
