package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"elevdispatch/src/dispatcher"
	"elevdispatch/src/elev"
	"elevdispatch/src/logging"
	"elevdispatch/src/types"
)

// Controller owns one passenger car and one service car and routes requests to them.
// Routing never waits for a drain; drains of different cars may run at the same time.
type Controller struct {
	logger    logr.Logger
	passenger Car
	service   Car
}

type Option func(*Controller)

func WithLogger(logger logr.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func New(factory CarFactory, opts ...Option) (*Controller, error) {
	c := &Controller{logger: logr.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithName("controller")

	var err error
	if c.passenger, err = createCar(factory, types.Passenger); err != nil {
		return nil, err
	}
	if c.service, err = createCar(factory, types.Service); err != nil {
		return nil, err
	}
	return c, nil
}

func createCar(factory CarFactory, kind types.Kind) (Car, error) {
	car, err := factory.Create(kind)
	if err != nil {
		return Car{}, fmt.Errorf("create %s car: %w", kind, err)
	}
	if car.Unit == nil || car.Policy == nil {
		return Car{}, fmt.Errorf("create %s car: %w", kind, ErrIncompleteCar)
	}
	return car, nil
}

func (c *Controller) RoutePassengerUp(req types.Request) {
	c.passenger.Policy.Enqueue(req, types.Up)
}

func (c *Controller) RoutePassengerDown(req types.Request) {
	c.passenger.Policy.Enqueue(req, types.Down)
}

func (c *Controller) RouteService(req types.Request) {
	c.service.Policy.Enqueue(req, req.Direction)
}

// Route sends req to the car for its kind. Passenger requests travelling down go to the down queue and
// all others to the up queue.
func (c *Controller) Route(req types.Request) error {
	switch req.Kind {
	case types.Passenger:
		if req.Direction == types.Down {
			c.RoutePassengerDown(req)
		} else {
			c.RoutePassengerUp(req)
		}
	case types.Service:
		c.RouteService(req)
	default:
		return fmt.Errorf("route %s: %w: %d", req.ID, ErrUnsupportedKind, int(req.Kind))
	}
	c.logger.V(logging.VERBOSE).Info("Request routed", "kind", req.Kind.String(), "request", req.String())
	return nil
}

// RunPassengerBatch drains the passenger car and blocks until it is idle or preempted.
func (c *Controller) RunPassengerBatch() dispatcher.Report {
	return c.run(c.passenger)
}

func (c *Controller) RunServiceBatch() dispatcher.Report {
	return c.run(c.service)
}

// RunAll drains both cars concurrently and waits for both.
func (c *Controller) RunAll() (passenger, service dispatcher.Report) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		passenger = c.RunPassengerBatch()
	}()
	go func() {
		defer wg.Done()
		service = c.RunServiceBatch()
	}()
	wg.Wait()
	return passenger, service
}

func (c *Controller) run(car Car) dispatcher.Report {
	kind := car.Unit.Kind().String()
	c.logger.V(logging.DEBUG).Info("Running batch", "kind", kind, "pending", car.Policy.Len())
	report := car.Policy.Drain(car.Unit)
	c.logger.Info("Batch done", "kind", kind, "served", report.Served, "skipped", report.Skipped,
		"preempted", report.Preempted, "floor", car.Unit.Floor())
	return report
}

// TriggerEmergency resets every car and returns how many pending requests were dropped.
func (c *Controller) TriggerEmergency() int {
	dropped := 0
	for _, car := range c.cars() {
		n, err := car.Unit.ProcessEmergency(car.Policy)
		if err != nil {
			c.logger.Error(err, "Emergency override failed", "kind", car.Unit.Kind().String())
			continue
		}
		dropped += n
	}
	c.logger.Info("Emergency override", "dropped", dropped)
	return dropped
}

// Passenger exposes the passenger car for queries only. Every change goes through the controller.
func (c *Controller) Passenger() elev.View {
	return c.passenger.Unit.View()
}

func (c *Controller) Service() elev.View {
	return c.service.Unit.View()
}

// Status returns the passenger car's status followed by the service car's.
func (c *Controller) Status() []elev.Status {
	return []elev.Status{c.passenger.Unit.Status(), c.service.Unit.Status()}
}

func (c *Controller) Pending(kind types.Kind) ([]types.Request, error) {
	car, err := c.car(kind)
	if err != nil {
		return nil, err
	}
	return car.Policy.Pending(), nil
}

// Plan lists the floors the next drain of the car would stop at, starting from where it is now.
func (c *Controller) Plan(kind types.Kind) ([]int, error) {
	car, err := c.car(kind)
	if err != nil {
		return nil, err
	}
	return car.Policy.Plan(car.Unit.Floor(), car.Unit.Heading()), nil
}

// Estimate is the simulated time the car needs to work through its current plan.
func (c *Controller) Estimate(kind types.Kind) (time.Duration, error) {
	car, err := c.car(kind)
	if err != nil {
		return 0, err
	}
	floor := car.Unit.Floor()
	return dispatcher.EstimateDuration(car.Unit.Config(), floor, car.Policy.Plan(floor, car.Unit.Heading())), nil
}

// Monitor calls fn for every event either car publishes until ctx is done.
func (c *Controller) Monitor(ctx context.Context, fn func(types.Event)) {
	passengerEvents := c.passenger.Unit.Events()
	serviceEvents := c.service.Unit.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-passengerEvents:
			fn(e)
		case e := <-serviceEvents:
			fn(e)
		}
	}
}

func (c *Controller) car(kind types.Kind) (Car, error) {
	switch kind {
	case types.Passenger:
		return c.passenger, nil
	case types.Service:
		return c.service, nil
	}
	return Car{}, fmt.Errorf("%w: %d", ErrUnsupportedKind, int(kind))
}

func (c *Controller) cars() []Car {
	return []Car{c.passenger, c.service}
}
