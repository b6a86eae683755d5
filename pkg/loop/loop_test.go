package loop

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestStepOrder(t *testing.T) {
	l := New(10 * time.Millisecond)
	var got []string

	l.OnFrame(func() { got = append(got, "frame") })
	l.After(10*time.Millisecond, func() { got = append(got, "timer") })
	l.Post(func() { got = append(got, "posted") })

	l.Step()

	want := []string{"posted", "timer", "frame"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if l.Now() != 10*time.Millisecond {
		t.Errorf("Now() = %v, want 10ms", l.Now())
	}
}

func TestAfterOrdering(t *testing.T) {
	l := New(10 * time.Millisecond)
	var got []int

	l.After(30*time.Millisecond, func() { got = append(got, 3) })
	l.After(10*time.Millisecond, func() { got = append(got, 1) })
	l.After(30*time.Millisecond, func() { got = append(got, 4) })
	l.After(20*time.Millisecond, func() { got = append(got, 2) })

	l.Advance(25 * time.Millisecond)
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("after 25ms = %v, want [1 2]", got)
	}
	l.Advance(10 * time.Millisecond)
	if !slices.Equal(got, []int{1, 2, 3, 4}) {
		t.Errorf("after 35ms = %v, want [1 2 3 4]", got)
	}
}

func TestCancel(t *testing.T) {
	l := New(10 * time.Millisecond)
	fired, frames := false, 0

	cancelTimer := l.After(10*time.Millisecond, func() { fired = true })
	cancelFrame := l.OnFrame(func() { frames++ })

	if l.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", l.Pending())
	}
	cancelTimer()
	cancelTimer()
	l.Step()
	cancelFrame()
	l.Step()

	if fired {
		t.Error("cancelled timer fired")
	}
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
	if l.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", l.Pending())
	}
}

func TestZeroDelayTimerFiresSameStep(t *testing.T) {
	l := New(10 * time.Millisecond)
	var got []string
	l.After(10*time.Millisecond, func() {
		got = append(got, "first")
		l.After(0, func() { got = append(got, "chained") })
	})
	l.Step()
	if !slices.Equal(got, []string{"first", "chained"}) {
		t.Errorf("got %v, want [first chained]", got)
	}
}

func TestFrameHookAddedDuringFrame(t *testing.T) {
	l := New(0)
	inner := 0
	l.OnFrame(func() {
		if inner == 0 {
			l.OnFrame(func() { inner++ })
		}
	})
	l.Step()
	if inner != 0 {
		t.Errorf("inner ran in registering frame")
	}
	l.Step()
	if inner != 1 {
		t.Errorf("inner = %d, want 1", inner)
	}
}

func TestStepUntil(t *testing.T) {
	l := New(time.Millisecond)
	n := 0
	l.OnFrame(func() { n++ })

	if !l.StepUntil(func() bool { return n >= 5 }, 100) {
		t.Fatal("StepUntil = false, want true")
	}
	if n != 5 {
		t.Errorf("n = %d, want 5", n)
	}
	if l.StepUntil(func() bool { return false }, 3) {
		t.Error("StepUntil = true for impossible condition")
	}
}

func TestDo(t *testing.T) {
	l := New(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	ran := false
	if err := l.Do(ctx, func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Error("Do returned before fn ran")
	}
}

func TestDoCancelled(t *testing.T) {
	l := New(time.Millisecond) // never driven
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Do(ctx, func() {}); !errors.Is(err, context.Canceled) {
		t.Errorf("Do = %v, want context.Canceled", err)
	}
}

func TestFuture(t *testing.T) {
	f := NewFuture()
	var got []error
	f.Then(func(err error) { got = append(got, err) })

	if f.Done() {
		t.Fatal("new future is done")
	}
	boom := errors.New("boom")
	f.Resolve(boom)
	f.Resolve(nil)

	if !f.Done() || f.Err() != boom {
		t.Errorf("Done/Err = %v/%v, want true/boom", f.Done(), f.Err())
	}
	f.Then(func(err error) { got = append(got, err) })
	if len(got) != 2 || got[0] != boom || got[1] != boom {
		t.Errorf("callbacks saw %v, want [boom boom]", got)
	}

	if r := Resolved(nil); !r.Done() || r.Err() != nil {
		t.Error("Resolved(nil) not done")
	}
}
