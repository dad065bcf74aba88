// Package engine - clock.go
// The engine reads the clock once per operation and derives everything
// from the delta against the player's LastTick. Injecting it lets tests
// replay offline windows of any length instantly.
package engine

import "time"

// Clock provides the current instant for reconciliation.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock. All engine timestamps are UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
