package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Events carry a date without a time of day, so the upcoming cutoff is
// the start of the current day: an event later today still counts.
func TestStartOfDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 30, 45, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), startOfDay(now))
	assert.Equal(t, startOfDay(now), startOfDay(startOfDay(now)))
}
