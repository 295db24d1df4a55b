package dispatcher

import (
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	testclock "k8s.io/utils/clock/testing"

	"elevdispatch/src/config"
	"elevdispatch/src/elev"
	"elevdispatch/src/types"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.TravelDuration = time.Second
	cfg.DwellDuration = 3 * time.Second
	return cfg
}

func newTestUnit(t *testing.T, kind types.Kind, clk *testclock.FakeClock) *elev.Unit {
	t.Helper()
	return elev.NewUnit(kind, testConfig(), elev.WithClock(clk), elev.WithLogger(testr.New(t)))
}

// drainStepping runs policy.Drain on u, advancing clk one second at a time whenever the unit waits on it.
func drainStepping(t *testing.T, clk *testclock.FakeClock, policy Policy, u *elev.Unit) Report {
	t.Helper()
	return runStepping(t, clk, func() Report { return policy.Drain(u) })
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

// arrivals returns the floors of every Arrived event buffered on u.
func arrivals(u *elev.Unit) []int {
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

func bufferedEvents(u *elev.Unit) []types.Event {
	var events []types.Event
	for {
		select {
		case e := <-u.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}
