// Package queue holds the ordered stores the dispatch policies keep their pending requests in.
// Neither store is safe for concurrent use; the owning policy serializes access.
package queue

import "container/heap"

// LessFunc reports whether a should be popped before b.
type LessFunc[T any] func(a, b T) bool

// Heap pops items in the order given by its comparator. Items that compare equal pop in insertion order.
type Heap[T any] struct {
	items itemHeap[T]
	seq   uint64
}

func NewHeap[T any](less LessFunc[T]) *Heap[T] {
	return &Heap[T]{items: itemHeap[T]{less: less}}
}

func (h *Heap[T]) Push(v T) {
	h.seq++
	heap.Push(&h.items, entry[T]{value: v, seq: h.seq})
}

// Pop removes the head. ok is false when the heap is empty.
func (h *Heap[T]) Pop() (v T, ok bool) {
	if len(h.items.entries) == 0 {
		return v, false
	}
	e := heap.Pop(&h.items).(entry[T])
	return e.value, true
}

func (h *Heap[T]) Peek() (v T, ok bool) {
	if len(h.items.entries) == 0 {
		return v, false
	}
	return h.items.entries[0].value, true
}

func (h *Heap[T]) Len() int {
	return len(h.items.entries)
}

// Drain removes every item and returns them in pop order.
func (h *Heap[T]) Drain() []T {
	out := make([]T, 0, h.Len())
	for {
		v, ok := h.Pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Items returns the items in pop order without removing them.
func (h *Heap[T]) Items() []T {
	clone := itemHeap[T]{
		entries: append([]entry[T](nil), h.items.entries...),
		less:    h.items.less,
	}
	out := make([]T, 0, len(clone.entries))
	for len(clone.entries) > 0 {
		out = append(out, heap.Pop(&clone).(entry[T]).value)
	}
	return out
}

type entry[T any] struct {
	value T
	seq   uint64
}

// itemHeap implements heap.Interface.
type itemHeap[T any] struct {
	entries []entry[T]
	less    LessFunc[T]
}

func (h itemHeap[T]) Len() int { return len(h.entries) }

func (h itemHeap[T]) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if h.less(a.value, b.value) {
		return true
	}
	if h.less(b.value, a.value) {
		return false
	}
	return a.seq < b.seq
}

func (h itemHeap[T]) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *itemHeap[T]) Push(x any) { h.entries = append(h.entries, x.(entry[T])) }

func (h *itemHeap[T]) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	var zero entry[T]
	old[n-1] = zero
	h.entries = old[:n-1]
	return e
}
