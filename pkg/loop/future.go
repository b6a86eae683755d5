package loop

// Future is a one-shot completion signal resolved on the loop goroutine.
// It is not safe for concurrent use.
type Future struct {
	done  bool
	err   error
	thens []func(error)
}

// NewFuture returns an unresolved future.
func NewFuture() *Future { return &Future{} }

// Resolved returns a future already resolved with err.
func Resolved(err error) *Future {
	return &Future{done: true, err: err}
}

// Resolve completes the future and runs its callbacks in registration order.
// Only the first call has an effect.
func (f *Future) Resolve(err error) {
	if f.done {
		return
	}
	f.done, f.err = true, err
	thens := f.thens
	f.thens = nil
	for _, fn := range thens {
		fn(err)
	}
}

// Then registers fn to run on resolution. If the future is already resolved
// fn runs immediately.
func (f *Future) Then(fn func(error)) {
	if f.done {
		fn(f.err)
		return
	}
	f.thens = append(f.thens, fn)
}

// Done reports whether the future has resolved.
func (f *Future) Done() bool { return f.done }

// Err returns the resolution error. It is nil until Done.
func (f *Future) Err() error { return f.err }
