package cache

import (
	"testing"
	"time"

	"med-adherence/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleCacheRoundTrip(t *testing.T) {
	c, err := NewScheduleCache(8)
	require.NoError(t, err)

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day := schedule.DaySchedule{Date: "2025-06-01"}

	_, ok := c.Get("user-1", date)
	assert.False(t, ok)

	c.Put("user-1", date, day)
	got, ok := c.Get("user-1", date)
	require.True(t, ok)
	assert.Equal(t, "2025-06-01", got.Date)
}

func TestScheduleCacheInvalidateUser(t *testing.T) {
	c, err := NewScheduleCache(8)
	require.NoError(t, err)

	d1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	c.Put("user-1", d1, schedule.DaySchedule{Date: "2025-06-01"})
	c.Put("user-1", d2, schedule.DaySchedule{Date: "2025-06-02"})
	c.Put("user-2", d1, schedule.DaySchedule{Date: "2025-06-01"})

	c.InvalidateUser("user-1")

	_, ok := c.Get("user-1", d1)
	assert.False(t, ok)
	_, ok = c.Get("user-1", d2)
	assert.False(t, ok)

	// Otros usuarios no se ven afectados.
	_, ok = c.Get("user-2", d1)
	assert.True(t, ok)
}
