package dispatcher

import (
	"time"

	"github.com/tiendc/go-deepcopy"

	"elevdispatch/src/config"
	"elevdispatch/src/types"
)

// planStops simulates a drain over the given sweeps in order and returns the floors where the car
// actually stops. Requests for the floor the car is already on are skipped, as in a real drain.
func planStops(fromFloor int, sweeps ...[]types.Request) []int {
	stops := []int{}
	floor := fromFloor
	for _, sweep := range sweeps {
		for _, req := range sweep {
			target := req.Target()
			if target == floor {
				continue
			}
			stops = append(stops, target)
			floor = target
		}
	}
	return stops
}

// EstimateDuration is the simulated time until the car is idle again after stopping at every floor in
// stops: travel time per floor crossed plus one dwell per stop.
func EstimateDuration(cfg config.Config, fromFloor int, stops []int) time.Duration {
	var duration time.Duration
	floor := fromFloor
	for _, stop := range stops {
		distance := stop - floor
		if distance < 0 {
			distance = -distance
		}
		duration += time.Duration(distance)*cfg.TravelDuration + cfg.DwellDuration
		floor = stop
	}
	return duration
}

// copyRequest detaches req from every other copy of it. Callers keep their own destination pointer.
func copyRequest(req types.Request) types.Request {
	var dst types.Request
	if err := deepcopy.Copy(&dst, &req); err != nil {
		panic(err)
	}
	return dst
}

// copyRequests deep-copies queued requests so callers never share a destination pointer with a queue.
func copyRequests(src []types.Request) []types.Request {
	dst := make([]types.Request, 0, len(src))
	if err := deepcopy.Copy(&dst, &src); err != nil {
		panic(err)
	}
	return dst
}
