package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Window(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rl := New(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.IsAllowed("a"))
	assert.True(t, rl.IsAllowed("a"))
	assert.False(t, rl.IsAllowed("a"))

	// Other keys have their own budget.
	assert.True(t, rl.IsAllowed("b"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.IsAllowed("a"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rl := New(1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.IsAllowed("a")
	now = now.Add(2 * time.Minute)
	rl.Cleanup()

	assert.Empty(t, rl.requests)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := New(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.IsAllowed("a"))
	}
}
