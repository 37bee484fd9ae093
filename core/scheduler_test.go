package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerOrder(t *testing.T) {
	var s Scheduler
	var order []uint32

	record := func(tm *Timer) uint8 {
		order = append(order, tm.WakeTime)
		return SF_DONE
	}
	timers := []*Timer{
		{WakeTime: 30, Handler: record},
		{WakeTime: 10, Handler: record},
		{WakeTime: 20, Handler: record},
	}
	for _, tm := range timers {
		s.ScheduleTimer(tm)
	}
	assert.Equal(t, 3, s.Len())

	s.Dispatch(15)
	assert.Equal(t, []uint32{10}, order)

	s.Dispatch(30)
	assert.Equal(t, []uint32{10, 20, 30}, order)
	assert.Equal(t, 0, s.Len())
}

func TestSchedulerReschedule(t *testing.T) {
	var s Scheduler
	fired := 0
	tm := &Timer{WakeTime: 5}
	tm.Handler = func(tm *Timer) uint8 {
		fired++
		tm.WakeTime += 5
		return SF_RESCHEDULE
	}
	s.ScheduleTimer(tm)

	for now := uint32(0); now <= 50; now++ {
		s.Dispatch(now)
	}
	assert.Equal(t, 10, fired)
	assert.Equal(t, 1, s.Len())
}

func TestSchedulerWraparound(t *testing.T) {
	var s Scheduler
	var order []string

	late := &Timer{WakeTime: 3, Handler: func(*Timer) uint8 {
		order = append(order, "late")
		return SF_DONE
	}}
	early := &Timer{WakeTime: math.MaxUint32 - 1, Handler: func(*Timer) uint8 {
		order = append(order, "early")
		return SF_DONE
	}}
	s.ScheduleTimer(late)
	s.ScheduleTimer(early)

	s.Dispatch(math.MaxUint32)
	assert.Equal(t, []string{"early"}, order)

	s.Dispatch(5)
	assert.Equal(t, []string{"early", "late"}, order)
}

func TestSchedulerCancel(t *testing.T) {
	var s Scheduler
	fired := false
	a := &Timer{WakeTime: 1, Handler: func(*Timer) uint8 { fired = true; return SF_DONE }}
	b := &Timer{WakeTime: 2, Handler: func(*Timer) uint8 { return SF_DONE }}
	s.ScheduleTimer(a)
	s.ScheduleTimer(b)

	s.Cancel(a)
	s.Cancel(b)
	s.Dispatch(10)

	assert.False(t, fired)
	assert.Equal(t, 0, s.Len())
}
