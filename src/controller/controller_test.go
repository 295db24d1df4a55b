package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
	"k8s.io/utils/ptr"

	"elevdispatch/src/config"
	"elevdispatch/src/dispatcher"
	"elevdispatch/src/elev"
	"elevdispatch/src/types"
)

func newTestController(t *testing.T) (*Controller, *testclock.FakeClock) {
	t.Helper()
	cfg := config.Default()
	cfg.TravelDuration = time.Second
	cfg.DwellDuration = 3 * time.Second
	clk := testclock.NewFakeClock(time.Now())
	logger := testr.New(t)
	c, err := New(NewFactory(cfg, WithClock(clk), WithFactoryLogger(logger)), WithLogger(logger))
	require.NoError(t, err)
	return c, clk
}

func runStepping[T any](t *testing.T, clk *testclock.FakeClock, fn func() T) T {
	t.Helper()
	done := make(chan T, 1)
	go func() { done <- fn() }()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case v := <-done:
			return v
		case <-deadline:
			t.Fatal("operation did not finish")
		default:
			if clk.HasWaiters() {
				clk.Step(time.Second)
			} else {
				time.Sleep(time.Millisecond)
			}
		}
	}
}

func arrivals(u elev.View) []int {
	floors := []int{}
	for {
		select {
		case e := <-u.Events():
			if e.Type == types.EventArrived {
				floors = append(floors, e.Floor)
			}
		default:
			return floors
		}
	}
}

type brokenFactory struct{ inner CarFactory }

func (f brokenFactory) Create(kind types.Kind) (Car, error) {
	if kind == types.Service {
		return Car{}, errors.New("no service shaft")
	}
	return f.inner.Create(kind)
}

func TestFactoryCreate(t *testing.T) {
	t.Parallel()

	f := NewFactory(config.Default())
	for _, kind := range []types.Kind{types.Passenger, types.Service} {
		car, err := f.Create(kind)
		require.NoError(t, err)
		assert.Equal(t, elev.Status{
			Kind:    kind,
			Floor:   config.GroundFloor,
			Motion:  types.Idle,
			Heading: types.Idle,
			Door:    types.DoorClosed,
		}, car.Unit.Status())
		assert.Zero(t, car.Policy.Len())
	}

	_, err := f.Create(types.Kind(7))
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestNewFactoryError(t *testing.T) {
	t.Parallel()

	_, err := New(brokenFactory{inner: NewFactory(config.Default())})
	assert.ErrorContains(t, err, "create service car")
}

func TestRoute(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(t)
	up := types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(6))
	down := types.NewRequest(types.Passenger, types.Outside, 9, ptr.To(3))
	service := types.NewRequest(types.Service, types.Outside, 4, ptr.To(2))

	for _, req := range []types.Request{up, down, service} {
		require.NoError(t, c.Route(req))
	}

	passengerPlan, err := c.Plan(types.Passenger)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 9, 3}, passengerPlan)
	servicePlan, err := c.Plan(types.Service)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, servicePlan, "service requests skip the pickup stop")

	pending, err := c.Pending(types.Passenger)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	err = c.Route(types.NewRequest(types.Kind(5), types.Inside, 1, nil))
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	_, err = c.Plan(types.Kind(5))
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestPassengerScenario(t *testing.T) {
	t.Parallel()

	c, clk := newTestController(t)
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Outside, 1, ptr.To(5)))
	c.RoutePassengerDown(types.NewRequest(types.Passenger, types.Outside, 4, ptr.To(2)))
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Outside, 3, ptr.To(6)))
	estimate, err := c.Estimate(types.Passenger)
	require.NoError(t, err)
	start := clk.Now()

	report := runStepping(t, clk, c.RunPassengerBatch)

	assert.False(t, report.Preempted)
	if diff := cmp.Diff([]int{3, 5, 6, 4, 2}, arrivals(c.Passenger())); diff != "" {
		t.Errorf("Unexpected visit order (-want +got): %s", diff)
	}
	assert.Equal(t, 2, c.Passenger().Floor())
	assert.Equal(t, types.Idle, c.Passenger().Motion())
	assert.Equal(t, estimate, clk.Since(start))
	assert.Equal(t, config.GroundFloor, c.Service().Floor(), "the service car is untouched")
}

func TestServiceScenario(t *testing.T) {
	t.Parallel()

	c, clk := newTestController(t)
	c.RouteService(types.NewRequest(types.Service, types.Inside, 1, ptr.To(13)))
	c.RouteService(types.NewRequest(types.Service, types.Outside, 13, ptr.To(2)))
	c.RouteService(types.NewRequest(types.Service, types.Inside, 2, ptr.To(15)))

	report := runStepping(t, clk, c.RunServiceBatch)

	assert.Equal(t, 3, report.Served)
	assert.Equal(t, []int{13, 2, 15}, arrivals(c.Service()))
	assert.Equal(t, types.Idle, c.Service().Motion())
}

func TestRunAll(t *testing.T) {
	t.Parallel()

	c, clk := newTestController(t)
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(4)))
	c.RouteService(types.NewRequest(types.Service, types.Inside, 1, ptr.To(7)))

	reports := runStepping(t, clk, func() [2]dispatcher.Report {
		passenger, service := c.RunAll()
		return [2]dispatcher.Report{passenger, service}
	})

	assert.Equal(t, 1, reports[0].Served)
	assert.Equal(t, 1, reports[1].Served)
	assert.Equal(t, 4, c.Passenger().Floor())
	assert.Equal(t, 7, c.Service().Floor())
}

func assertEmergencyState(t *testing.T, c *Controller) {
	t.Helper()
	for _, status := range c.Status() {
		assert.Equal(t, config.GroundFloor, status.Floor, status.Kind.String())
		assert.Equal(t, types.Idle, status.Motion, status.Kind.String())
		assert.Equal(t, types.DoorOpen, status.Door, status.Kind.String())
		assert.True(t, status.EmergencyActive, status.Kind.String())
	}
	for _, kind := range []types.Kind{types.Passenger, types.Service} {
		pending, err := c.Pending(kind)
		require.NoError(t, err)
		assert.Empty(t, pending, kind.String())
	}
}

func TestTriggerEmergencyWhileIdle(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(t)
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Outside, 2, ptr.To(8)))
	c.RouteService(types.NewRequest(types.Service, types.Inside, 1, ptr.To(3)))

	assert.Equal(t, 3, c.TriggerEmergency())
	assertEmergencyState(t, c)
	assert.Zero(t, c.TriggerEmergency(), "a second override finds nothing to drop")
	assertEmergencyState(t, c)
}

func TestTriggerEmergencyDuringDrain(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(t)
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(5)))
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(9)))
	c.RouteService(types.NewRequest(types.Service, types.Inside, 1, ptr.To(13)))
	c.RouteService(types.NewRequest(types.Service, types.Inside, 1, ptr.To(2)))

	done := make(chan [2]dispatcher.Report, 1)
	go func() {
		passenger, service := c.RunAll()
		done <- [2]dispatcher.Report{passenger, service}
	}()
	require.Eventually(t, func() bool {
		return c.Passenger().Motion() == types.Up && c.Service().Motion() == types.Up
	}, time.Second, time.Millisecond)

	assert.Equal(t, 2, c.TriggerEmergency())

	select {
	case reports := <-done:
		assert.True(t, reports[0].Preempted)
		assert.True(t, reports[1].Preempted)
	case <-time.After(time.Second):
		t.Fatal("drains were not preempted")
	}
	assertEmergencyState(t, c)
}

func TestMonitor(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan types.Event, 8)
	stopped := make(chan struct{})
	go func() {
		c.Monitor(ctx, func(e types.Event) { events <- e })
		close(stopped)
	}()

	c.TriggerEmergency()

	kinds := map[types.Kind]bool{}
	for len(kinds) < 2 {
		select {
		case e := <-events:
			if e.Type == types.EventEmergency {
				kinds[e.Kind] = true
			}
		case <-time.After(time.Second):
			t.Fatal("emergency events were not delivered")
		}
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

type incompleteFactory struct{ inner CarFactory }

func (f incompleteFactory) Create(kind types.Kind) (Car, error) {
	car, err := f.inner.Create(kind)
	car.Policy = nil
	return car, err
}

func TestNewRejectsIncompleteCar(t *testing.T) {
	t.Parallel()

	_, err := New(incompleteFactory{inner: NewFactory(config.Default())})
	assert.ErrorIs(t, err, ErrIncompleteCar)
}

func TestCarViewsAreReadOnly(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(t)
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(5)))

	for _, view := range []elev.View{c.Passenger(), c.Service()} {
		_, ok := view.(*elev.Unit)
		assert.False(t, ok, "%s view exposes the unit", view.Kind())
	}
	assert.False(t, c.Passenger().EmergencyActive())
	pending, err := c.Pending(types.Passenger)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRouteCopiesRequest(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(t)
	req := types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(3))
	require.NoError(t, c.Route(req))

	*req.DestinationFloor = 12

	plan, err := c.Plan(types.Passenger)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, plan)
}

func TestRouteDuringDrain(t *testing.T) {
	t.Parallel()

	c, clk := newTestController(t)
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(5)))

	done := make(chan dispatcher.Report, 1)
	go func() { done <- c.RunPassengerBatch() }()
	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond, "car never left the ground floor")

	routed := make(chan struct{})
	go func() {
		c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(8)))
		c.RoutePassengerDown(types.NewRequest(types.Passenger, types.Inside, 1, ptr.To(2)))
		close(routed)
	}()
	select {
	case <-routed:
	case <-time.After(time.Second):
		t.Fatal("routing waited for the running drain")
	}
	assert.Equal(t, types.Up, c.Passenger().Motion())

	report := runStepping(t, clk, func() dispatcher.Report { return <-done })

	assert.Equal(t, 3, report.Served)
	assert.Equal(t, []int{5, 8, 2}, arrivals(c.Passenger()))
	assert.Equal(t, types.Idle, c.Passenger().Motion())
}

func TestStatusNeverOpenWhileMoving(t *testing.T) {
	t.Parallel()

	c, clk := newTestController(t)
	c.RoutePassengerUp(types.NewRequest(types.Passenger, types.Outside, 3, ptr.To(7)))
	c.RoutePassengerDown(types.NewRequest(types.Passenger, types.Outside, 9, ptr.To(2)))
	c.RouteService(types.NewRequest(types.Service, types.Inside, 1, ptr.To(13)))
	c.RouteService(types.NewRequest(types.Service, types.Outside, 13, ptr.To(4)))

	stop := make(chan struct{})
	polled := make(chan []elev.Status, 1)
	go func() {
		var bad []elev.Status
		for {
			select {
			case <-stop:
				polled <- bad
				return
			default:
			}
			for _, status := range c.Status() {
				moving := status.Motion == types.Up || status.Motion == types.Down
				if moving && status.Door == types.DoorOpen {
					bad = append(bad, status)
				}
			}
		}
	}()

	runStepping(t, clk, func() [2]dispatcher.Report {
		passenger, service := c.RunAll()
		return [2]dispatcher.Report{passenger, service}
	})
	close(stop)

	assert.Empty(t, <-polled, "doors were open while a car was moving")
	assert.Equal(t, 2, c.Passenger().Floor())
	assert.Equal(t, 4, c.Service().Floor())
}
