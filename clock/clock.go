// Package clock abstracts the time source so tests control record timestamps.
package clock

import "time"

// Clock supplies the current time for createdAt/updatedAt stamping.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns T. Intended for deterministic tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
