package astar

import (
	"container/heap"

	"github.com/pdrpinto/teleport-astar/internal"
)

// priorityQueue orders hub indices by the F cost they were queued with,
// then by queue sequence so equal keys pop in insertion order.
type priorityQueue struct {
	items []int32
	store *internal.Store
}

func (queue priorityQueue) Len() int { return len(queue.items) }
func (queue priorityQueue) Less(i, j int) bool {
	a, b := queue.store.At(queue.items[i]), queue.store.At(queue.items[j])
	if a.QueuedF != b.QueuedF {
		return a.QueuedF < b.QueuedF
	}
	return a.Seq < b.Seq
}
func (queue priorityQueue) Swap(i, j int) {
	queue.items[i], queue.items[j] = queue.items[j], queue.items[i]
	queue.store.At(queue.items[i]).QueueIndex = i
	queue.store.At(queue.items[j]).QueueIndex = j
}

func (queue *priorityQueue) Push(x any) {
	idx := x.(int32)
	queue.store.At(idx).QueueIndex = len(queue.items)
	queue.items = append(queue.items, idx)
}

func (queue *priorityQueue) Pop() any {
	n := len(queue.items)
	idx := queue.items[n-1]
	queue.items = queue.items[:n-1]
	queue.store.At(idx).QueueIndex = -1
	return idx
}

// heapFrontier is the default frontier. Decrease-key is an in-place
// heap.Fix on the hub's recorded queue index.
type heapFrontier struct {
	queue priorityQueue
	seq   uint64
}

func newHeapFrontier(store *internal.Store) *heapFrontier {
	f := &heapFrontier{queue: priorityQueue{items: make([]int32, 0, 64), store: store}}
	heap.Init(&f.queue)
	return f
}

func (f *heapFrontier) Push(idx int32) {
	stamp(f.queue.store.At(idx), &f.seq)
	heap.Push(&f.queue, idx)
}

func (f *heapFrontier) PopMin() int32 {
	return heap.Pop(&f.queue).(int32)
}

// Reprioritize re-keys idx. A hub that already left the queue is pushed
// back, so a popped hub that gets re-promoted is examined again.
func (f *heapFrontier) Reprioritize(idx int32) {
	hub := f.queue.store.At(idx)
	if hub.QueueIndex < 0 {
		f.Push(idx)
		return
	}
	stamp(hub, &f.seq)
	heap.Fix(&f.queue, hub.QueueIndex)
}

func (f *heapFrontier) Len() int { return f.queue.Len() }

func (f *heapFrontier) Reset() {
	f.queue.items = f.queue.items[:0]
	f.seq = 0
}

// stamp records the key a hub is queued under.
func stamp(hub *internal.Hub, seq *uint64) {
	*seq++
	hub.QueuedF = hub.F()
	hub.Seq = *seq
}
