package events

import "container/heap"

// Timer is a callback scheduled on the virtual clock of a Scheduler.
// A timer is either idle or pending; when it fires it becomes idle again and
// the callback may re-arm it.
type Timer struct {
	sched    *Scheduler
	callback func()

	when    uint64 // absolute time of the next (or last) expiry
	seq     uint64 // insertion order, breaks ties between equal expiries
	index   int    // position in the queue, -1 when idle
	expired bool   // set once the timer has fired at least once
}

// Scheduler is a single-threaded virtual time queue. Time only moves forward
// through RunUntil, and callbacks run synchronously in expiry order.
type Scheduler struct {
	now   uint64
	seq   uint64
	queue timerQueue
	fired uint64
}

// NewScheduler creates a scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// NewTimer creates an idle timer owned by the scheduler.
func (s *Scheduler) NewTimer(callback func()) *Timer {
	return &Timer{sched: s, callback: callback, index: -1}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() uint64 {
	return s.now
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Fired returns the total number of callbacks run so far.
func (s *Scheduler) Fired() uint64 {
	return s.fired
}

// RunUntil fires every timer that expires at or before target, in order,
// with Now() set to each timer's expiry while its callback runs. Time is
// left at target afterwards.
func (s *Scheduler) RunUntil(target uint64) {
	for len(s.queue) > 0 && s.queue[0].when <= target {
		t := heap.Pop(&s.queue).(*Timer)
		s.now = t.when
		s.fired++
		t.expired = true
		if t.callback != nil {
			t.callback()
		}
	}
	if target > s.now {
		s.now = target
	}
}

// Set arms the timer to expire delay units from now, replacing any pending
// expiry.
func (t *Timer) Set(delay uint64) {
	t.schedule(t.sched.now + delay)
}

// Advance moves the expiry forward by delta from the previous expiry rather
// than from the current time, so a periodic timer re-armed from its own
// callback never accumulates drift. An idle timer that never expired
// behaves like Set.
func (t *Timer) Advance(delta uint64) {
	if t.index < 0 && !t.expired {
		t.Set(delta)
		return
	}
	t.schedule(t.when + delta)
}

// Stop disarms the timer and forgets its last expiry, so a later Advance
// starts counting from the current time. Stopping an idle timer is a no-op.
func (t *Timer) Stop() {
	if t.index >= 0 {
		heap.Remove(&t.sched.queue, t.index)
	}
	t.expired = false
}

// Enabled reports whether the timer is pending.
func (t *Timer) Enabled() bool {
	return t.index >= 0
}

// When returns the pending expiry, or the last expiry of an idle timer.
func (t *Timer) When() uint64 {
	return t.when
}

func (t *Timer) schedule(when uint64) {
	s := t.sched
	t.when = when
	s.seq++
	t.seq = s.seq
	if t.index >= 0 {
		heap.Fix(&s.queue, t.index)
		return
	}
	heap.Push(&s.queue, t)
}

// timerQueue is a min-heap on (when, seq).
type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].when != q[j].when {
		return q[i].when < q[j].when
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
