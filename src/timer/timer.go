package timer

import (
	"time"

	"k8s.io/utils/clock"
)

// Wait blocks for d on clk. It returns false if abort is closed first.
// A non-positive duration returns immediately without touching the clock.
func Wait(clk clock.Clock, d time.Duration, abort <-chan struct{}) bool {
	select {
	case <-abort:
		return false
	default:
	}
	if d <= 0 {
		return true
	}

	t := clk.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C():
		return true
	case <-abort:
		return false
	}
}
