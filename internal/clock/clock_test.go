package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClockNeverFires(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewFixed(now)

	fired := false
	timer := c.AfterFunc(time.Nanosecond, func() { fired = true })

	assert.Equal(t, now, c.Now())
	assert.False(t, timer.Stop())
	assert.False(t, fired)
}

func TestManualAdvanceFiresDueTimersInOrder(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewManual(start)

	var order []string
	c.AfterFunc(3*time.Second, func() { order = append(order, "late") })
	c.AfterFunc(time.Second, func() { order = append(order, "early") })
	c.AfterFunc(10*time.Second, func() { order = append(order, "never") })

	c.Advance(5 * time.Second)

	assert.Equal(t, []string{"early", "late"}, order)
	assert.Equal(t, start.Add(5*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())
}

func TestManualStopPreventsFire(t *testing.T) {
	c := NewManual(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Minute)
	assert.False(t, fired)
	assert.Zero(t, c.Pending())
}

func TestManualTimerMayScheduleAnother(t *testing.T) {
	c := NewManual(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	count := 0
	c.AfterFunc(time.Second, func() {
		count++
		c.AfterFunc(time.Second, func() { count++ })
	})

	c.Advance(time.Second)
	assert.Equal(t, 1, count)
	c.Advance(time.Second)
	assert.Equal(t, 2, count)
}
