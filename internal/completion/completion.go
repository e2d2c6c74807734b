package completion

import (
	"context"
	"errors"
	"sync"
)

var ErrPending = errors.New("completion handle not settled")

// Handle is a single-assignment future. The first Succeed or Fail wins; every
// later attempt is a no-op and reports false.
type Handle[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	settled bool
	value   T
	err     error
}

func New[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

// Failed returns a handle that is already settled with err.
func Failed[T any](err error) *Handle[T] {
	h := New[T]()
	h.Fail(err)
	return h
}

func (h *Handle[T]) Succeed(value T) bool {
	return h.settle(value, nil)
}

func (h *Handle[T]) Fail(err error) bool {
	var zero T
	return h.settle(zero, err)
}

func (h *Handle[T]) settle(value T, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.settled {
		return false
	}
	h.settled = true
	h.value = value
	h.err = err
	close(h.done)
	return true
}

func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

func (h *Handle[T]) Settled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settled
}

// Result does not block. Before settlement it returns ErrPending.
func (h *Handle[T]) Result() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.settled {
		var zero T
		return zero, ErrPending
	}
	return h.value, h.err
}

// Wait blocks until the handle settles or ctx is done, in which case the
// context error is returned.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
