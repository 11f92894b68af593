package index

import "container/heap"

// queryCandidate is one entry of the traversal queue. It either references
// a tree node by index or carries a concrete segment pulled from a leaf
// page (segment != nil). Entries are ordered by their minimum possible
// distance to the query; ties are broken arbitrarily.
type queryCandidate struct {
	minDist float64
	nodeID  uint32
	segment *EdgeData
}

type candidateHeap []queryCandidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].minDist < h[j].minDist }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(queryCandidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// traversalQueue is a min-priority queue over query candidates.
type traversalQueue struct {
	heap candidateHeap
}

func newTraversalQueue() *traversalQueue {
	return &traversalQueue{heap: candidateHeap{}}
}

func (q *traversalQueue) push(candidate queryCandidate) {
	heap.Push(&q.heap, candidate)
}

func (q *traversalQueue) pop() queryCandidate {
	return heap.Pop(&q.heap).(queryCandidate)
}

func (q *traversalQueue) empty() bool {
	return len(q.heap) == 0
}

func (q *traversalQueue) clear() {
	q.heap = q.heap[:0]
}
