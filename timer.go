package main

import (
	"time"
)

// countdown ticks roughly once per interval, calling tick with the number of
// ticks remaining (times down to 1), then done once the count is exhausted.
// It knows nothing about games; callbacks must re-check any state they touch,
// since the session they were started for may be gone by the time they fire.
func countdown(interval time.Duration, times int, tick func(remaining int), done func()) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			if times <= 0 {
				done()
				return
			}
			tick(times)
			times--
		}
	}()
}
