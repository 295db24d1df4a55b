package queue

import "container/list"

// FIFO pops items in exactly the order they were pushed.
type FIFO[T any] struct {
	items *list.List
}

func NewFIFO[T any]() *FIFO[T] {
	return &FIFO[T]{items: list.New()}
}

func (q *FIFO[T]) Push(v T) {
	q.items.PushBack(v)
}

func (q *FIFO[T]) Pop() (v T, ok bool) {
	front := q.items.Front()
	if front == nil {
		return v, false
	}
	q.items.Remove(front)
	return front.Value.(T), true
}

func (q *FIFO[T]) Len() int {
	return q.items.Len()
}

// Drain removes every item and returns them in arrival order.
func (q *FIFO[T]) Drain() []T {
	out := q.Items()
	q.items.Init()
	return out
}

// Items returns the items in arrival order without removing them.
func (q *FIFO[T]) Items() []T {
	out := make([]T, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(T))
	}
	return out
}
