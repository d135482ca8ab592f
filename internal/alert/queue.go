package alert

import "container/heap"

// pending is a priority-ordered multiset of notifications.
// Critical sorts before Info; equal priorities keep insertion order
// (seq is a monotonic tie-breaker).
//
// Callers own the locking; the heap itself is not goroutine-safe.
type pending struct {
	items []pendingItem
	seq   uint64
}

type pendingItem struct {
	n   Notification
	seq uint64
}

func (q *pending) Len() int { return len(q.items) }

func (q *pending) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.n.Priority != b.n.Priority {
		return a.n.Priority > b.n.Priority
	}
	return a.seq < b.seq
}

func (q *pending) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *pending) Push(x any) { q.items = append(q.items, x.(pendingItem)) }

func (q *pending) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	q.items = old[:n-1]
	return it
}

func (q *pending) push(n Notification) {
	q.seq++
	heap.Push(q, pendingItem{n: n, seq: q.seq})
}

func (q *pending) pop() (Notification, bool) {
	if len(q.items) == 0 {
		return Notification{}, false
	}
	it := heap.Pop(q).(pendingItem)
	return it.n, true
}
