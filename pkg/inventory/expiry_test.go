package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateExpiration(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expiration time.Time
		wantDays   int
		wantStale  bool
	}{
		{
			name:       "expiring shortly after midnight tomorrow is zero days today",
			expiration: time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC),
			wantDays:   0,
			wantStale:  false,
		},
		{
			name:       "a day and a half out is one day",
			expiration: now.Add(36 * time.Hour),
			wantDays:   1,
			wantStale:  false,
		},
		{
			name:       "five full days",
			expiration: now.Add(5*24*time.Hour + time.Minute),
			wantDays:   5,
			wantStale:  false,
		},
		{
			name:       "just past expiration is negative and expired",
			expiration: now.Add(-time.Hour),
			wantDays:   -1,
			wantStale:  true,
		},
		{
			name:       "expiring exactly now is not yet expired",
			expiration: now,
			wantDays:   0,
			wantStale:  false,
		},
		{
			name:       "long expired",
			expiration: now.Add(-49 * time.Hour),
			wantDays:   -3,
			wantStale:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := EvaluateExpiration(tt.expiration, now)
			assert.Equal(t, tt.wantDays, status.DaysToExpire)
			assert.Equal(t, tt.wantStale, status.IsExpired)
		})
	}
}

func TestExpiringSoonWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	from, to := expiringSoonWindow(now, 3)

	assert.Equal(t, now, from)
	assert.Equal(t, now.Add(4*24*time.Hour), to)

	// An item one day out sits inside the window, an item 4.5 days out does
	// not, and anything already expired falls before it.
	oneDay := now.Add(36 * time.Hour)
	assert.True(t, !oneDay.Before(from) && oneDay.Before(to))

	fourDays := now.Add(4*24*time.Hour + 12*time.Hour)
	assert.False(t, fourDays.Before(to))

	expired := now.Add(-12 * time.Hour)
	assert.True(t, expired.Before(from))
}
