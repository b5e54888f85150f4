package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_FiresInOrder(t *testing.T) {
	s := NewScheduler()
	var order []string

	a := s.NewTimer(func() { order = append(order, "a") })
	b := s.NewTimer(func() { order = append(order, "b") })
	c := s.NewTimer(func() { order = append(order, "c") })

	a.Set(30)
	b.Set(10)
	c.Set(10) // same expiry as b, scheduled later

	s.RunUntil(25)
	assert.Equal(t, []string{"b", "c"}, order)
	assert.Equal(t, uint64(25), s.Now())
	assert.Equal(t, 1, s.Pending())

	s.RunUntil(30)
	assert.Equal(t, []string{"b", "c", "a"}, order)
	assert.Equal(t, uint64(3), s.Fired())
}

func TestScheduler_NowDuringCallback(t *testing.T) {
	s := NewScheduler()
	var seen uint64
	tm := s.NewTimer(func() { seen = s.Now() })
	tm.Set(42)

	s.RunUntil(100)
	assert.Equal(t, uint64(42), seen)
	assert.Equal(t, uint64(100), s.Now())
}

func TestTimer_AdvanceIsDriftFree(t *testing.T) {
	s := NewScheduler()
	var fires []uint64
	var tm *Timer
	tm = s.NewTimer(func() {
		fires = append(fires, s.Now())
		tm.Advance(7)
	})
	tm.Set(7)

	// Run in uneven steps; expiries must stay on the 7-unit grid.
	for _, target := range []uint64{3, 15, 16, 40, 50} {
		s.RunUntil(target)
	}

	assert.Equal(t, []uint64{7, 14, 21, 28, 35, 42, 49}, fires)
	assert.True(t, tm.Enabled())
	assert.Equal(t, uint64(56), tm.When())
}

func TestTimer_AdvanceWhilePending(t *testing.T) {
	s := NewScheduler()
	fired := 0
	tm := s.NewTimer(func() { fired++ })

	tm.Set(10)
	tm.Advance(5)
	assert.Equal(t, uint64(15), tm.When())

	s.RunUntil(14)
	assert.Equal(t, 0, fired)
	s.RunUntil(15)
	assert.Equal(t, 1, fired)
}

func TestTimer_AdvanceFromIdleStartsAtNow(t *testing.T) {
	s := NewScheduler()
	s.RunUntil(100)

	tm := s.NewTimer(nil)
	tm.Advance(10)
	assert.Equal(t, uint64(110), tm.When())
}

func TestTimer_Stop(t *testing.T) {
	s := NewScheduler()
	fired := 0
	tm := s.NewTimer(func() { fired++ })

	tm.Set(10)
	tm.Stop()
	assert.False(t, tm.Enabled())
	tm.Stop() // idle stop is a no-op

	s.RunUntil(20)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 0, s.Pending())

	// A stopped timer re-armed by Advance counts from now.
	tm.Advance(5)
	assert.Equal(t, uint64(25), tm.When())
}
