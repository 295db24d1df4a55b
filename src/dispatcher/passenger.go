package dispatcher

import (
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"elevdispatch/src/elev"
	"elevdispatch/src/logging"
	"elevdispatch/src/metrics"
	"elevdispatch/src/queue"
	"elevdispatch/src/types"
)

// PassengerPolicy keeps one queue per sweep direction. The up queue pops the lowest floor first and the
// down queue the highest, so a drain finishes a whole sweep before it reverses.
type PassengerPolicy struct {
	logger logr.Logger

	mu   sync.Mutex
	up   *queue.Heap[types.Request]
	down *queue.Heap[types.Request]

	// drainMu allows a single drain at a time without blocking Enqueue.
	drainMu sync.Mutex
}

var _ Policy = &PassengerPolicy{}

func ascendingTarget(a, b types.Request) bool  { return a.Target() < b.Target() }
func descendingTarget(a, b types.Request) bool { return a.Target() > b.Target() }

func NewPassengerPolicy(logger logr.Logger) *PassengerPolicy {
	return &PassengerPolicy{
		logger: logger.WithName("passenger-policy"),
		up:     queue.NewHeap(ascendingTarget),
		down:   queue.NewHeap(descendingTarget),
	}
}

func (p *PassengerPolicy) EnqueueUp(req types.Request) {
	p.Enqueue(req, types.Up)
}

func (p *PassengerPolicy) EnqueueDown(req types.Request) {
	p.Enqueue(req, types.Down)
}

// Enqueue puts req on the down queue when dir is Down and on the up queue otherwise. A request from
// outside the car is preceded by a stop at its origin floor so the passenger can board.
func (p *PassengerPolicy) Enqueue(req types.Request, dir types.MotionState) {
	name := queueName(dir)
	req = copyRequest(req)

	p.mu.Lock()
	q := p.queue(dir)
	added := []types.Request{req}
	if req.Origin == types.Outside && !req.Pickup {
		added = []types.Request{req.PickupStop(), req}
	}
	for _, r := range added {
		q.Push(r)
	}
	pending := p.up.Len() + p.down.Len()
	p.mu.Unlock()

	for range added {
		metrics.RecordEnqueued(types.Passenger.String(), name)
	}
	metrics.SetPending(types.Passenger.String(), pending)
	p.logger.V(logging.DEBUG).Info("Request queued", "queue", name, "request", req.String(), "id", req.ID)
}

func (p *PassengerPolicy) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.up.Len() + p.down.Len()
}

// Clear drops every queued request and returns how many there were.
func (p *PassengerPolicy) Clear() int {
	p.mu.Lock()
	n := len(p.up.Drain()) + len(p.down.Drain())
	p.mu.Unlock()

	metrics.SetPending(types.Passenger.String(), 0)
	return n
}

// Pending returns the up queue followed by the down queue, each in pop order.
func (p *PassengerPolicy) Pending() []types.Request {
	up, down := p.snapshot()
	return append(up, down...)
}

func (p *PassengerPolicy) Plan(fromFloor int, heading types.MotionState) []int {
	up, down := p.snapshot()
	if heading == types.Down {
		return planStops(fromFloor, down, up)
	}
	return planStops(fromFloor, up, down)
}

func (p *PassengerPolicy) snapshot() (up, down []types.Request) {
	p.mu.Lock()
	upItems, downItems := p.up.Items(), p.down.Items()
	p.mu.Unlock()
	return copyRequests(upItems), copyRequests(downItems)
}

// Drain serves both queues until they are empty. The sweep the unit is already heading in goes first;
// an idle unit starts upwards.
func (p *PassengerPolicy) Drain(u *elev.Unit) Report {
	p.drainMu.Lock()
	defer p.drainMu.Unlock()

	start := time.Now()
	session := u.Begin()
	var report Report
	err := p.drain(u, session, &report)
	report.Duration = time.Since(start)
	metrics.RecordDrainDuration(types.Passenger.String(), report.Duration)

	if errors.Is(err, elev.ErrPreempted) {
		report.Preempted = true
		p.logger.Info("Drain preempted by emergency", "served", report.Served, "skipped", report.Skipped)
		return report
	}
	session.Settle()
	p.logger.V(logging.VERBOSE).Info("Drain finished", "served", report.Served, "skipped", report.Skipped)
	return report
}

func (p *PassengerPolicy) drain(u *elev.Unit, session *elev.Session, report *Report) error {
	for p.Len() > 0 {
		first := types.Up
		if u.Heading() == types.Down {
			first = types.Down
		}
		for _, dir := range []types.MotionState{first, first.Opposite()} {
			if err := p.sweep(session, dir, report); err != nil {
				return err
			}
		}
	}
	return nil
}

// sweep pops from one direction's queue until it is empty.
func (p *PassengerPolicy) sweep(session *elev.Session, dir types.MotionState, report *Report) error {
	next, ok := p.peek(dir)
	if !ok {
		return nil
	}
	if err := session.SetHeading(dir); err != nil {
		return err
	}
	p.logger.V(logging.DEBUG).Info("Processing requests", "queue", queueName(dir), "next", next.Target())
	for {
		req, ok := p.pop(dir)
		if !ok {
			return nil
		}
		served, err := session.ServeStop(req)
		if err != nil {
			return err
		}
		report.record(types.Passenger, served)
	}
}

func (p *PassengerPolicy) pop(dir types.MotionState) (types.Request, bool) {
	p.mu.Lock()
	req, ok := p.queue(dir).Pop()
	pending := p.up.Len() + p.down.Len()
	p.mu.Unlock()

	if ok {
		metrics.SetPending(types.Passenger.String(), pending)
	}
	return req, ok
}

func (p *PassengerPolicy) peek(dir types.MotionState) (types.Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue(dir).Peek()
}

// queue must be called with p.mu held.
func (p *PassengerPolicy) queue(dir types.MotionState) *queue.Heap[types.Request] {
	if dir == types.Down {
		return p.down
	}
	return p.up
}

func queueName(dir types.MotionState) string {
	if dir == types.Down {
		return "down"
	}
	return "up"
}

func (r *Report) record(kind types.Kind, served bool) {
	if served {
		r.Served++
		metrics.RecordStop(kind.String(), metrics.OutcomeServed)
		return
	}
	r.Skipped++
	metrics.RecordStop(kind.String(), metrics.OutcomeSkipped)
}
