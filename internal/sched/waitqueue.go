package sched

import (
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// waitQueue is a host's waiting collection: a red-black tree whose leftmost
// node is always the next task to run. The mutex guards only the tree.
type waitQueue struct {
	mu  sync.Mutex
	rbt *redblacktree.Tree
}

func newWaitQueue() *waitQueue {
	return &waitQueue{rbt: redblacktree.NewWith(cmp)}
}

func (q *waitQueue) push(t *Task) {
	q.mu.Lock()
	q.rbt.Put(keyOf(t), t)
	q.mu.Unlock()
}

// pop removes and returns the head, or nil when empty.
func (q *waitQueue) pop() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	node := q.rbt.Left()
	if node == nil {
		return nil
	}
	q.rbt.Remove(node.Key)
	return node.Value.(*Task)
}

// exchange hands out the head if it strictly outranks running, putting
// running back in its place. Returns nil and leaves the queue untouched
// otherwise. The check and both mutations happen under one lock.
func (q *waitQueue) exchange(running *Task) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	node := q.rbt.Left()
	if node == nil {
		return nil
	}
	head := node.Value.(*Task)
	if head.Priority() <= running.Priority() {
		return nil
	}
	q.rbt.Remove(node.Key)
	q.rbt.Put(keyOf(running), running)
	return head
}

// snapshot returns the waiting tasks in run order.
func (q *waitQueue) snapshot() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Task, 0, q.rbt.Size())
	for _, v := range q.rbt.Values() {
		out = append(out, v.(*Task))
	}
	return out
}

// nodeKey is used as a key in the red-black tree.
type nodeKey struct {
	priority int
	arrival  uint64
	id       string
}

func keyOf(t *Task) nodeKey {
	return nodeKey{priority: t.Priority(), arrival: t.Arrival(), id: t.ID}
}

// cmp orders by priority descending, then arrival ascending. The ID only
// keeps two tasks with identical (priority, arrival) from sharing a node.
func cmp(a, b any) int {
	ka, kb := a.(nodeKey), b.(nodeKey)
	switch {
	case ka.priority > kb.priority:
		return -1
	case ka.priority < kb.priority:
		return 1
	case ka.arrival < kb.arrival:
		return -1
	case ka.arrival > kb.arrival:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}
