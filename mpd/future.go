package mpd

import (
	"context"
	"sync"
)

// Dispatcher runs completion callbacks on a caller-chosen context, e.g. a UI
// thread's queue. The default runs them inline.
type Dispatcher func(func())

// Inline runs callbacks on the goroutine that completed the request
func Inline(f func()) { f() }

// Future is the eventual result of a request. It resolves exactly once.
type Future[T any] struct {
	done     chan struct{}
	dispatch Dispatcher

	mu        sync.Mutex
	resolved  bool
	value     T
	err       error
	callbacks []func(T, error)
}

func newFuture[T any](dispatch Dispatcher) *Future[T] {
	if dispatch == nil {
		dispatch = Inline
	}
	return &Future[T]{done: make(chan struct{}), dispatch: dispatch}
}

// Resolved returns an already completed future
func Resolved[T any](value T, err error) *Future[T] {
	f := newFuture[T](nil)
	f.resolve(value, err)
	return f
}

// Failed returns a future that completed with err
func Failed[T any](err error) *Future[T] {
	var zero T
	return Resolved(zero, err)
}

func (f *Future[T]) resolve(value T, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.value, f.err = value, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
}

// onResolve registers an internal continuation that runs without the dispatcher
func (f *Future[T]) onResolve(cb func(T, error)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	cb(value, err)
}

// Then registers cb to run once through the dispatcher when the future resolves
func (f *Future[T]) Then(cb func(T, error)) {
	dispatch := f.dispatch
	f.onResolve(func(value T, err error) {
		dispatch(func() { cb(value, err) })
	})
}

// Done is closed when the future resolves
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx ends
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, wrap("wait", ctx.Err())
	}
}

// Map derives a future whose value is fn applied to src's value. Errors pass
// through untouched.
func Map[A, B any](src *Future[A], fn func(A) (B, error)) *Future[B] {
	out := newFuture[B](src.dispatch)
	src.onResolve(func(value A, err error) {
		if err != nil {
			var zero B
			out.resolve(zero, err)
			return
		}
		out.resolve(fn(value))
	})
	return out
}

// Chain runs fn with src's value and resolves with the future fn returns.
// An error from src skips fn.
func Chain[A, B any](src *Future[A], fn func(A) *Future[B]) *Future[B] {
	out := newFuture[B](src.dispatch)
	src.onResolve(func(value A, err error) {
		if err != nil {
			var zero B
			out.resolve(zero, err)
			return
		}
		fn(value).onResolve(out.resolve)
	})
	return out
}
