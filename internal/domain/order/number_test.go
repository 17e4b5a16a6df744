package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberAllocatorRange(t *testing.T) {
	a := DefaultNumberAllocator()

	seen := make(map[string]bool)
	for range 1000 {
		n := a.Allocate()
		require.Regexp(t, `^#\d{4}$`, n)
		seen[n] = true
	}
	// 1000 draws from 9000 values should not land on a single number.
	assert.Greater(t, len(seen), 1)
}

func TestNumberAllocatorDeterministic(t *testing.T) {
	a := NewNumberAllocator("#", 1000, 9999)
	a.intn = func(n int) int {
		assert.Equal(t, 9000, n)
		return 234
	}

	assert.Equal(t, "#1234", a.Allocate())
}

func TestNumberAllocatorCustomPrefix(t *testing.T) {
	a := NewNumberAllocator("ORD-", 1, 5)
	a.intn = func(int) int { return 0 }

	assert.Equal(t, "ORD-1", a.Allocate())
}

func TestNumberAllocatorBadBoundsFallBack(t *testing.T) {
	for _, tc := range []struct {
		name      string
		low, high int
	}{
		{"inverted", 500, 100},
		{"zero low", 0, 9999},
		{"equal", 7, 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := NewNumberAllocator("#", tc.low, tc.high)
			assert.Equal(t, DefaultNumberLow, a.low)
			assert.Equal(t, DefaultNumberHigh, a.high)
		})
	}
}
