package buffer

import (
	"cmp"
	"iter"
	"slices"
)

var _ Window[any] = (*BoundedBuffer[any, string])(nil)

// BoundedBuffer is a [Window] backed by a sorted slice.
//
// Items that compare equal keep the order in which their keys were first inserted. Every effective
// Add re-sorts the whole slice, which is fine for capacities up to a few hundred
// items. See [TreeBuffer] for larger windows.
type BoundedBuffer[Item any, Key comparable] struct {
	entries   []entry[Item]
	index     map[Key]int
	snapshot  []Item
	maxSize   int
	seq       uint64
	pushes    int
	evictions int

	keyFunc     func(Item) Key
	compareFunc func(Item, Item) int
	replaceFunc func(existing, incoming Item) bool
}

// Bounded returns an empty window holding at most maxSize items.
//
// Without [BoundedBuffer.WithReplace], the first item seen for a key is kept and later items with
// the same key are dropped.
func Bounded[Item any, Key comparable](
	maxSize int,
	keyFunc func(Item) Key,
	compareFunc func(Item, Item) int,
) *BoundedBuffer[Item, Key] {
	if maxSize < 1 {
		panic("max size can't be < 1")
	}
	if keyFunc == nil {
		panic("key func can't be nil")
	}
	if compareFunc == nil {
		panic("compare func can't be nil")
	}
	return &BoundedBuffer[Item, Key]{
		entries:     make([]entry[Item], 0, min(maxSize, 64)),
		index:       make(map[Key]int),
		maxSize:     maxSize,
		keyFunc:     keyFunc,
		compareFunc: compareFunc,
	}
}

// WithReplace sets the policy applied when an incoming item has the key of a stored one. The
// stored item is replaced only if replaceFunc returns true.
func (b *BoundedBuffer[Item, Key]) WithReplace(
	replaceFunc func(existing, incoming Item) bool,
) *BoundedBuffer[Item, Key] {
	if replaceFunc == nil {
		panic("replace func can't be nil")
	}
	b.replaceFunc = replaceFunc
	return b
}

func (b *BoundedBuffer[Item, Key]) Add(items ...Item) bool {
	changed := false
	for _, item := range items {
		b.pushes += 1
		key := b.keyFunc(item)
		i, ok := b.index[key]
		if !ok {
			b.seq += 1
			b.index[key] = len(b.entries)
			b.entries = append(b.entries, entry[Item]{item: item, seq: b.seq})
			changed = true
			continue
		}
		// A replaced item keeps its sequence, so ties don't depend on update order.
		if b.replaceFunc != nil && b.replaceFunc(b.entries[i].item, item) {
			b.entries[i].item = item
			changed = true
		}
	}

	if !changed {
		return false
	}

	slices.SortFunc(b.entries, func(x, y entry[Item]) int {
		if c := b.compareFunc(x.item, y.item); c != 0 {
			return c
		}
		return cmp.Compare(x.seq, y.seq)
	})
	if len(b.entries) > b.maxSize {
		evicted := b.entries[b.maxSize:]
		b.evictions += len(evicted)
		clear(evicted)
		b.entries = b.entries[:b.maxSize]
	}

	clear(b.index)
	for i, e := range b.entries {
		b.index[b.keyFunc(e.item)] = i
	}

	b.snapshot = nil
	return true
}

func (b *BoundedBuffer[Item, Key]) Items() []Item {
	if b.snapshot == nil {
		b.snapshot = make([]Item, len(b.entries))
		for i, e := range b.entries {
			b.snapshot[i] = e.item
		}
	}
	return b.snapshot
}

func (b *BoundedBuffer[Item, Key]) Clear() {
	clear(b.entries)
	b.entries = b.entries[:0]
	clear(b.index)
	b.snapshot = nil
	b.pushes = 0
}

func (b *BoundedBuffer[Item, Key]) Evictions() int {
	return b.evictions
}

func (b *BoundedBuffer[Item, Key]) Push(item Item) {
	b.Add(item)
}

func (b *BoundedBuffer[Item, Key]) Size() int {
	return len(b.entries)
}

func (b *BoundedBuffer[Item, Key]) Pushes() int {
	return b.pushes
}

func (b *BoundedBuffer[Item, Key]) Iter() iter.Seq[Item] {
	return slices.Values(b.Items())
}

func (b *BoundedBuffer[Item, Key]) Reset() {
	b.Clear()
}

func (b *BoundedBuffer[Item, Key]) Derive() Buffer[Item] {
	d := Bounded(b.maxSize, b.keyFunc, b.compareFunc)
	d.replaceFunc = b.replaceFunc
	return d
}
