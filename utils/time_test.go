package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfMonthUTC(t *testing.T) {
	in := time.Date(2025, 6, 15, 23, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), StartOfMonthUTC(in))

	// Non-UTC input normalizes before truncation
	tz := time.FixedZone("UTC+5", 5*3600)
	late := time.Date(2025, 7, 1, 2, 0, 0, 0, tz) // still June in UTC
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), StartOfMonthUTC(late))
}

func TestStartOfDayUTC(t *testing.T) {
	in := time.Date(2025, 6, 15, 23, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), StartOfDayUTC(in))
}

func TestIsExpired(t *testing.T) {
	past := UTCNow().Add(-time.Minute)
	future := UTCNow().Add(time.Minute)

	assert.True(t, IsExpired(past))
	assert.False(t, IsExpired(future))

	assert.False(t, IsExpiredPtr(nil))
	assert.True(t, IsExpiredPtr(&past))
}
