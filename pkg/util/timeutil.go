package util

import "time"

// Now is swapped out by tests that need a fixed clock.
var Now = time.Now

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return Now().UTC()
}
