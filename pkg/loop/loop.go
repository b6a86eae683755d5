// Package loop provides the cooperative, single-goroutine clock that drives
// layout ticks, animation timers and transition futures.
//
// Every engine component runs on one goroutine. Components never start
// goroutines or sleep: they register frame callbacks and timers on a
// [Scheduler], and the host advances the clock, either in real time with
// [Loop.Run] or deterministically with [Loop.Step] and [Loop.Advance] (tests,
// offline export, the terminal viewer).
//
// Work from other goroutines (HTTP handlers, file watchers) enters the loop
// through [Loop.Post] or [Loop.Do].
package loop

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// DefaultFrame is the frame interval used when none is given (~60 fps).
const DefaultFrame = 16 * time.Millisecond

// Cancel stops a registered timer or frame callback. Calling it more than
// once is harmless.
type Cancel func()

// Scheduler is the clock engine components schedule work on.
type Scheduler interface {
	// Now returns the virtual time elapsed since the scheduler started.
	Now() time.Duration
	// After runs fn once, d after Now.
	After(d time.Duration, fn func()) Cancel
	// OnFrame runs fn once per frame until cancelled.
	OnFrame(fn func()) Cancel
}

// Loop is the default [Scheduler]. Apart from Post and Do, its methods must
// be called from the goroutine that drives it.
type Loop struct {
	frame time.Duration
	now   time.Duration

	mu     sync.Mutex
	posted []func()

	timers timerQueue
	seq    uint64
	frames []*hook
}

// New creates a loop with the given frame interval.
func New(frame time.Duration) *Loop {
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &Loop{frame: frame}
}

// Frame returns the frame interval.
func (l *Loop) Frame() time.Duration { return l.frame }

// Now returns the virtual time elapsed since the loop was created.
func (l *Loop) Now() time.Duration { return l.now }

// After schedules fn to run once the clock reaches Now()+d.
func (l *Loop) After(d time.Duration, fn func()) Cancel {
	l.seq++
	t := &timer{at: l.now + d, seq: l.seq, fn: fn}
	heap.Push(&l.timers, t)
	return func() { t.fn = nil }
}

// OnFrame registers fn to run at the end of every Step.
func (l *Loop) OnFrame(fn func()) Cancel {
	h := &hook{fn: fn}
	l.frames = append(l.frames, h)
	return func() { h.fn = nil }
}

// Post queues fn to run at the start of the next Step. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// Do posts fn and blocks until it has run on the loop or ctx is done.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Step runs one frame: posted work, then the clock advances by one frame
// and due timers fire in deadline order, then frame callbacks run.
func (l *Loop) Step() {
	l.drainPosted()
	l.now += l.frame
	l.fireTimers()
	l.runFrames()
}

// Flush runs posted work and timers already due without advancing time.
func (l *Loop) Flush() {
	l.drainPosted()
	l.fireTimers()
}

// Advance steps the loop until at least d of virtual time has elapsed.
func (l *Loop) Advance(d time.Duration) {
	end := l.now + d
	for l.now < end {
		l.Step()
	}
}

// StepUntil steps until cond holds or max frames have run.
// Reports whether cond held.
func (l *Loop) StepUntil(cond func() bool, max int) bool {
	for range max {
		if cond() {
			return true
		}
		l.Step()
	}
	return cond()
}

// Pending reports the number of live timers.
func (l *Loop) Pending() int {
	n := 0
	for _, t := range l.timers {
		if t.fn != nil {
			n++
		}
	}
	return n
}

// Run drives the loop in real time, one Step per frame interval, until ctx
// is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Step()
		}
	}
}

func (l *Loop) drainPosted() {
	for {
		l.mu.Lock()
		work := l.posted
		l.posted = nil
		l.mu.Unlock()
		if len(work) == 0 {
			return
		}
		for _, fn := range work {
			fn()
		}
	}
}

func (l *Loop) fireTimers() {
	for l.timers.Len() > 0 && l.timers[0].at <= l.now {
		t := heap.Pop(&l.timers).(*timer)
		if fn := t.fn; fn != nil {
			t.fn = nil
			fn()
		}
	}
}

func (l *Loop) runFrames() {
	live := l.frames[:0]
	for _, h := range l.frames {
		if h.fn != nil {
			live = append(live, h)
		}
	}
	l.frames = live
	// Hooks registered by a callback start on the next frame.
	for _, h := range live {
		if fn := h.fn; fn != nil {
			fn()
		}
	}
}

type hook struct {
	fn func()
}

type timer struct {
	at  time.Duration
	seq uint64
	fn  func()
}

type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }
func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *timerQueue) Push(x any)   { *q = append(*q, x.(*timer)) }
func (q *timerQueue) Pop() any {
	old := *q
	t := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return t
}

var _ Scheduler = (*Loop)(nil)
