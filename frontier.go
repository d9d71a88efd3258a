package astar

import (
	"github.com/tidwall/btree"

	"github.com/pdrpinto/teleport-astar/internal"
)

// frontier is the open set. Keys are Cumulative+Heuristic with ties going
// to the earliest queued hub.
type frontier interface {
	Push(idx int32)
	PopMin() int32
	Reprioritize(idx int32)
	Len() int
	Reset()
}

// FrontierKind selects the open set implementation.
type FrontierKind int

const (
	// FrontierHeap is a binary heap with in-place decrease-key.
	FrontierHeap FrontierKind = iota
	// FrontierBTree is an ordered B-tree; re-keying is delete plus insert.
	FrontierBTree
)

func (k FrontierKind) String() string {
	switch k {
	case FrontierHeap:
		return "heap"
	case FrontierBTree:
		return "btree"
	default:
		return "unknown"
	}
}

func newFrontier(kind FrontierKind, store *internal.Store) frontier {
	if kind == FrontierBTree {
		return newBTreeFrontier(store)
	}
	return newHeapFrontier(store)
}

type queuedHub struct {
	f   float64
	seq uint64
	idx int32
}

func queuedHubLess(a, b queuedHub) bool {
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}

type btreeFrontier struct {
	tree  *btree.BTreeG[queuedHub]
	store *internal.Store
	seq   uint64
}

func newBTreeFrontier(store *internal.Store) *btreeFrontier {
	return &btreeFrontier{
		tree:  btree.NewBTreeGOptions(queuedHubLess, btree.Options{NoLocks: true}),
		store: store,
	}
}

func (f *btreeFrontier) Push(idx int32) {
	hub := f.store.At(idx)
	stamp(hub, &f.seq)
	hub.QueueIndex = 0
	f.tree.Set(queuedHub{f: hub.QueuedF, seq: hub.Seq, idx: idx})
}

func (f *btreeFrontier) PopMin() int32 {
	item, ok := f.tree.PopMin()
	if !ok {
		panic("astar: PopMin on empty frontier")
	}
	f.store.At(item.idx).QueueIndex = -1
	return item.idx
}

func (f *btreeFrontier) Reprioritize(idx int32) {
	hub := f.store.At(idx)
	if hub.QueueIndex >= 0 {
		f.tree.Delete(queuedHub{f: hub.QueuedF, seq: hub.Seq, idx: idx})
	}
	f.Push(idx)
}

func (f *btreeFrontier) Len() int { return f.tree.Len() }

func (f *btreeFrontier) Reset() {
	f.tree.Clear()
	f.seq = 0
}
