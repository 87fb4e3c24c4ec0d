// Package clock abstracts the current time so run-directory timestamps can
// be pinned in tests.
package clock

import "time"

// Clock supplies the current time. The output manager takes a Clock instead
// of calling time.Now directly, letting tests force timestamp collisions.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock is the production Clock backed by the system time.
type RealClock struct{}

// Now returns the system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Compile-time check that RealClock implements Clock.
var _ Clock = RealClock{}
