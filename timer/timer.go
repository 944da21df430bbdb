// timer/timer.go
package timer

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/wfunc/gamehub/logger"
)

const DefaultResolution = 100 * time.Millisecond

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	Callback func(now time.Time)
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

func (q TimerQueue) Less(i, j int) bool {
	if q[i].Execute.Equal(q[j].Execute) {
		return q[i].Id < q[j].Id
	}
	return q[i].Execute.Before(q[j].Execute)
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*TimerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Scheduler runs periodic callbacks against an injectable clock.
// Callbacks run one at a time on the goroutine that calls RunDue or Run, in
// execution-time order.
type Scheduler struct {
	queue      TimerQueue
	mutex      sync.Mutex
	nextId     int64
	clock      func() time.Time
	resolution time.Duration
}

func NewScheduler(clock func() time.Time, resolution time.Duration) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	s := &Scheduler{
		queue:      make(TimerQueue, 0),
		nextId:     1,
		clock:      clock,
		resolution: resolution,
	}
	heap.Init(&s.queue)
	return s
}

// Every schedules callback every interval, first firing one interval from now.
func (s *Scheduler) Every(interval time.Duration, callback func(now time.Time)) int64 {
	if interval <= 0 {
		interval = s.resolution
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task := &TimerTask{
		Id:       s.nextId,
		Execute:  s.clock().Add(interval),
		Interval: interval,
		Callback: callback,
	}
	s.nextId++

	heap.Push(&s.queue, task)
	return task.Id
}

// Len is the number of pending tasks.
func (s *Scheduler) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.queue.Len()
}

// RunDue fires every task due at now and returns how many ran. Tasks are
// rescheduled from now, so a late scheduler does not fire a burst.
func (s *Scheduler) RunDue(now time.Time) int {
	s.mutex.Lock()
	var due []*TimerTask
	for s.queue.Len() > 0 {
		task := s.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&s.queue)
		due = append(due, task)

		task.Execute = now.Add(task.Interval)
		heap.Push(&s.queue, task)
	}
	s.mutex.Unlock()

	for _, task := range due {
		s.fire(task, now)
	}
	return len(due)
}

func (s *Scheduler) fire(task *TimerTask, now time.Time) {
	defer func() {
		if p := recover(); p != nil {
			logger.Log.Errorf("timer task %d panicked: %v", task.Id, p)
		}
	}()
	task.Callback(now)
}

// Run drives the scheduler until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunDue(s.clock())
		}
	}
}
