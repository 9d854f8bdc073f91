package engine

import "sync"

// workQueue is an unbounded LIFO of pending items plus the outstanding
// counter that decides termination. An item is outstanding from Push until
// the worker that popped it calls Done, so a directory being expanded keeps
// the run alive even while the queue is momentarily empty.
//
// The mutex only guards the slice and counter; no caller holds it across
// filesystem I/O.
type workQueue struct {
	mu          sync.Mutex
	cond        *sync.Cond
	items       []WorkItem
	outstanding int
	closed      bool
	onDrain     func()
}

func newWorkQueue(onDrain func()) *workQueue {
	q := &workQueue{onDrain: onDrain}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push adds an item and never blocks. It reports false if the queue has
// been closed, in which case the item is dropped.
func (q *workQueue) Push(item WorkItem) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.outstanding++
	q.mu.Unlock()
	q.cond.Signal()
	return true
}

// Pop removes an item. While the queue is empty but work is outstanding it
// waits for a Push or for the last Done. It returns false once nothing is
// outstanding or the queue is closed.
func (q *workQueue) Pop() (WorkItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && q.outstanding > 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed || len(q.items) == 0 {
		return WorkItem{}, false
	}

	last := len(q.items) - 1
	item := q.items[last]
	q.items[last] = WorkItem{}
	q.items = q.items[:last]
	return item, true
}

// Done marks a popped item as fully processed, including any children it
// pushed. The transition to zero outstanding wakes every waiting worker.
func (q *workQueue) Done() {
	q.mu.Lock()
	q.outstanding--
	drained := q.outstanding == 0
	q.mu.Unlock()

	if drained {
		if q.onDrain != nil {
			q.onDrain()
		}
		q.cond.Broadcast()
	}
}

// Close wakes all waiters and makes every later Pop fail. Items still
// queued are abandoned.
func (q *workQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Outstanding returns the number of items pushed but not yet done.
func (q *workQueue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}

// Len returns the number of items waiting to be popped.
func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
