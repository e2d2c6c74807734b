package elevqueue

import (
	"container/list"
	"sync"

	"github.com/szymonmasternak/area51-elevator/internal/elevcall"
)

// CallQueue is a FIFO of calls shared between many producers and the single
// dispatcher. One mutex guards every operation, iteration included.
type CallQueue struct {
	mu     sync.Mutex
	calls  *list.List
	closed bool
}

func NewCallQueue() *CallQueue {
	return &CallQueue{calls: list.New()}
}

// PushBack appends call. It returns false once the queue is closed.
func (q *CallQueue) PushBack(call elevcall.Call) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.calls.PushBack(call)
	return true
}

// PushFront puts call ahead of everything already queued.
func (q *CallQueue) PushFront(call elevcall.Call) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.calls.PushFront(call)
	return true
}

func (q *CallQueue) PopFront() (elevcall.Call, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.calls.Front()
	if front == nil {
		return nil, false
	}
	q.calls.Remove(front)
	return front.Value.(elevcall.Call), true
}

// RemoveMatching extracts every call satisfying match, keeping queue order.
func (q *CallQueue) RemoveMatching(match func(elevcall.Call) bool) []elevcall.Call {
	q.mu.Lock()
	defer q.mu.Unlock()

	var removed []elevcall.Call
	for e := q.calls.Front(); e != nil; {
		next := e.Next()
		call := e.Value.(elevcall.Call)
		if match(call) {
			removed = append(removed, call)
			q.calls.Remove(e)
		}
		e = next
	}
	return removed
}

func (q *CallQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls.Len()
}

// Snapshot lists the queued calls front to back without removing them.
func (q *CallQueue) Snapshot() []elevcall.Call {
	q.mu.Lock()
	defer q.mu.Unlock()

	calls := make([]elevcall.Call, 0, q.calls.Len())
	for e := q.calls.Front(); e != nil; e = e.Next() {
		calls = append(calls, e.Value.(elevcall.Call))
	}
	return calls
}

// Close rejects all further pushes and hands back whatever was still queued.
func (q *CallQueue) Close() []elevcall.Call {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	remaining := make([]elevcall.Call, 0, q.calls.Len())
	for e := q.calls.Front(); e != nil; e = e.Next() {
		remaining = append(remaining, e.Value.(elevcall.Call))
	}
	q.calls.Init()
	return remaining
}
