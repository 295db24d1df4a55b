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

// ServicePolicy serves freight and maintenance traffic strictly in arrival order, whatever the floors.
type ServicePolicy struct {
	logger logr.Logger

	mu       sync.Mutex
	requests *queue.FIFO[types.Request]

	drainMu sync.Mutex
}

var _ Policy = &ServicePolicy{}

func NewServicePolicy(logger logr.Logger) *ServicePolicy {
	return &ServicePolicy{
		logger:   logger.WithName("service-policy"),
		requests: queue.NewFIFO[types.Request](),
	}
}

// Enqueue appends req. The direction is ignored and no pickup stop is added: the car goes straight to
// the request's target.
func (s *ServicePolicy) Enqueue(req types.Request, _ types.MotionState) {
	req = copyRequest(req)
	s.mu.Lock()
	s.requests.Push(req)
	pending := s.requests.Len()
	s.mu.Unlock()

	metrics.RecordEnqueued(types.Service.String(), "fifo")
	metrics.SetPending(types.Service.String(), pending)
	s.logger.V(logging.DEBUG).Info("Request queued", "request", req.String(), "id", req.ID)
}

func (s *ServicePolicy) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests.Len()
}

func (s *ServicePolicy) Clear() int {
	s.mu.Lock()
	n := len(s.requests.Drain())
	s.mu.Unlock()

	metrics.SetPending(types.Service.String(), 0)
	return n
}

func (s *ServicePolicy) Pending() []types.Request {
	s.mu.Lock()
	items := s.requests.Items()
	s.mu.Unlock()
	return copyRequests(items)
}

func (s *ServicePolicy) Plan(fromFloor int, _ types.MotionState) []int {
	return planStops(fromFloor, s.Pending())
}

func (s *ServicePolicy) Drain(u *elev.Unit) Report {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	start := time.Now()
	session := u.Begin()
	var report Report
	err := s.drain(u, session, &report)
	report.Duration = time.Since(start)
	metrics.RecordDrainDuration(types.Service.String(), report.Duration)

	if errors.Is(err, elev.ErrPreempted) {
		report.Preempted = true
		s.logger.Info("Drain preempted by emergency", "served", report.Served, "skipped", report.Skipped)
		return report
	}
	session.Settle()
	s.logger.V(logging.VERBOSE).Info("Drain finished", "served", report.Served, "skipped", report.Skipped)
	return report
}

func (s *ServicePolicy) drain(u *elev.Unit, session *elev.Session, report *Report) error {
	for {
		req, ok := s.pop()
		if !ok {
			return nil
		}
		if dir := types.DirectionBetween(u.Floor(), req.Target()); dir != types.Idle {
			if err := session.SetHeading(dir); err != nil {
				return err
			}
		}
		served, err := session.ServeStop(req)
		if err != nil {
			return err
		}
		report.record(types.Service, served)
	}
}

func (s *ServicePolicy) pop() (types.Request, bool) {
	s.mu.Lock()
	req, ok := s.requests.Pop()
	pending := s.requests.Len()
	s.mu.Unlock()

	if ok {
		metrics.SetPending(types.Service.String(), pending)
	}
	return req, ok
}
