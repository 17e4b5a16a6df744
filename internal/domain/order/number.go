package order

import (
	"fmt"
	"math/rand/v2"
)

// Display number policy defaults. The range is deliberately small: short
// numbers are easy to read out over the phone, and collisions are handled
// by the placement retry loop rather than avoided up front.
const (
	DefaultNumberPrefix = "#"
	DefaultNumberLow    = 1000
	DefaultNumberHigh   = 9999
)

// NumberAllocator produces candidate display numbers drawn uniformly from
// a bounded range. Numbers are non-monotonic and non-guessable; uniqueness
// is enforced by the database constraint, not by the allocator.
type NumberAllocator struct {
	prefix string
	low    int
	high   int
	intn   func(n int) int
}

// NewNumberAllocator creates an allocator for the inclusive range
// [low, high], formatted with the given prefix. Out-of-order or
// non-positive bounds fall back to the defaults.
func NewNumberAllocator(prefix string, low, high int) *NumberAllocator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	if low <= 0 || high <= low {
		low, high = DefaultNumberLow, DefaultNumberHigh
	}
	return &NumberAllocator{
		prefix: prefix,
		low:    low,
		high:   high,
		intn:   rand.IntN,
	}
}

// DefaultNumberAllocator returns an allocator with the default policy,
// producing numbers like "#1234".
func DefaultNumberAllocator() *NumberAllocator {
	return NewNumberAllocator(DefaultNumberPrefix, DefaultNumberLow, DefaultNumberHigh)
}

// Allocate returns a fresh candidate display number. Every call is an
// independent draw; callers re-roll on collision.
func (a *NumberAllocator) Allocate() string {
	return fmt.Sprintf("%s%d", a.prefix, a.low+a.intn(a.high-a.low+1))
}
