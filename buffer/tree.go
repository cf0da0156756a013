package buffer

import (
	"iter"
	"slices"

	"github.com/google/btree"
)

var _ Window[any] = (*TreeBuffer[any, string])(nil)

// TreeBuffer is a [Window] backed by a B-tree.
//
// It has the same contract as [BoundedBuffer], but an Add costs O(k log n) for k incoming items
// instead of a full re-sort. Items that compare equal keep the order in which their keys were
// first inserted.
type TreeBuffer[Item any, Key comparable] struct {
	tree      *btree.BTreeG[entry[Item]]
	index     map[Key]entry[Item]
	snapshot  []Item
	degree    int
	maxSize   int
	seq       uint64
	pushes    int
	evictions int

	keyFunc     func(Item) Key
	compareFunc func(Item, Item) int
	replaceFunc func(existing, incoming Item) bool
}

// Tree returns an empty tree-backed window holding at most maxSize items.
func Tree[Item any, Key comparable](
	degree int,
	maxSize int,
	keyFunc func(Item) Key,
	compareFunc func(Item, Item) int,
) *TreeBuffer[Item, Key] {
	if degree < 2 {
		panic("degree can't be < 2")
	}
	if maxSize < 1 {
		panic("max size can't be < 1")
	}
	if keyFunc == nil {
		panic("key func can't be nil")
	}
	if compareFunc == nil {
		panic("compare func can't be nil")
	}

	less := func(a, b entry[Item]) bool {
		if c := compareFunc(a.item, b.item); c != 0 {
			return c < 0
		}
		return a.seq < b.seq
	}

	return &TreeBuffer[Item, Key]{
		tree:        btree.NewG(degree, less),
		index:       make(map[Key]entry[Item]),
		degree:      degree,
		maxSize:     maxSize,
		keyFunc:     keyFunc,
		compareFunc: compareFunc,
	}
}

// WithReplace works like [BoundedBuffer.WithReplace].
func (b *TreeBuffer[Item, Key]) WithReplace(
	replaceFunc func(existing, incoming Item) bool,
) *TreeBuffer[Item, Key] {
	if replaceFunc == nil {
		panic("replace func can't be nil")
	}
	b.replaceFunc = replaceFunc
	return b
}

func (b *TreeBuffer[Item, Key]) Add(items ...Item) bool {
	changed := false
	for _, item := range items {
		b.pushes += 1
		key := b.keyFunc(item)
		existing, ok := b.index[key]
		if !ok {
			b.seq += 1
			e := entry[Item]{item: item, seq: b.seq}
			b.tree.ReplaceOrInsert(e)
			b.index[key] = e
			changed = true
			continue
		}
		if b.replaceFunc != nil && b.replaceFunc(existing.item, item) {
			e := entry[Item]{item: item, seq: existing.seq}
			b.tree.Delete(existing)
			b.tree.ReplaceOrInsert(e)
			b.index[key] = e
			changed = true
		}
	}

	if !changed {
		return false
	}

	// Truncation happens once per batch, so a key stays known to the batch until it is over.
	for b.tree.Len() > b.maxSize {
		e, _ := b.tree.DeleteMax()
		delete(b.index, b.keyFunc(e.item))
		b.evictions += 1
	}

	b.snapshot = nil
	return true
}

func (b *TreeBuffer[Item, Key]) Items() []Item {
	if b.snapshot == nil {
		b.snapshot = make([]Item, 0, b.tree.Len())
		b.tree.Ascend(func(e entry[Item]) bool {
			b.snapshot = append(b.snapshot, e.item)
			return true
		})
	}
	return b.snapshot
}

func (b *TreeBuffer[Item, Key]) Clear() {
	b.tree.Clear(false)
	clear(b.index)
	b.snapshot = nil
	b.pushes = 0
}

func (b *TreeBuffer[Item, Key]) Evictions() int {
	return b.evictions
}

func (b *TreeBuffer[Item, Key]) Push(item Item) {
	b.Add(item)
}

func (b *TreeBuffer[Item, Key]) Size() int {
	return b.tree.Len()
}

func (b *TreeBuffer[Item, Key]) Pushes() int {
	return b.pushes
}

func (b *TreeBuffer[Item, Key]) Iter() iter.Seq[Item] {
	return slices.Values(b.Items())
}

func (b *TreeBuffer[Item, Key]) Reset() {
	b.Clear()
}

func (b *TreeBuffer[Item, Key]) Derive() Buffer[Item] {
	d := Tree(b.degree, b.maxSize, b.keyFunc, b.compareFunc)
	d.replaceFunc = b.replaceFunc
	return d
}
