package authclient

import "context"

// Pending is the result of an operation running in the background. There is
// no cancellation: a caller that lost interest simply ignores the result.
type Pending[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Async runs fn on a new goroutine and returns immediately
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.value, p.err = fn(ctx)
	}()
	return p
}

// Done is closed once the operation resolved
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the operation resolved and returns its outcome
func (p *Pending[T]) Wait() (T, error) {
	<-p.done
	return p.value, p.err
}

// Then invokes cb with the outcome once resolved, on the background goroutine
// that waits for it.
func (p *Pending[T]) Then(cb func(T, error)) {
	if cb == nil {
		return
	}
	go func() {
		<-p.done
		cb(p.value, p.err)
	}()
}
