package dispatcher

import (
	"time"

	"elevdispatch/src/elev"
	"elevdispatch/src/types"
)

// Policy decides in which order a unit serves its pending requests.
type Policy interface {
	elev.Clearer
	// Enqueue adds req to the policy. dir selects the sweep queue for policies that keep one per direction.
	Enqueue(req types.Request, dir types.MotionState)
	// Drain serves requests on u until the policy is empty or an emergency preempts it.
	Drain(u *elev.Unit) Report
	Len() int
	// Pending returns a copy of the queued requests in the order they would be popped.
	Pending() []types.Request
	// Plan lists the floors a drain starting at fromFloor with the given heading would stop at.
	Plan(fromFloor int, heading types.MotionState) []int
}

// Report summarizes one drain.
type Report struct {
	Served  int
	Skipped int
	// Preempted is set when an emergency cut the drain short. Requests it had popped are gone.
	Preempted bool
	Duration  time.Duration
}
