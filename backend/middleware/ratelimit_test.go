package middleware

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func Test_RateLimiter(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	check.True(t, rl.Allow("bidder:1"))
	check.True(t, rl.Allow("bidder:1"))
	check.False(t, rl.Allow("bidder:1"))
	check.True(t, rl.Allow("bidder:2"))

	now = now.Add(61 * time.Second)
	check.True(t, rl.Allow("bidder:1"))
	check.Equal(t, 1, len(rl.requests["bidder:1"]))
}
