package buffer

import (
	"iter"
)

var _ Buffer[any] = (*MergingBuffer[any, string])(nil)

// MergingBuffer coalesces items with equal keys using a merge function.
//
// Iteration follows the order in which keys were first pushed.
type MergingBuffer[Item any, Key comparable] struct {
	items     []Item
	index     map[Key]int
	pushes    int
	keyFunc   func(Item) Key
	mergeFunc func(Item, Item) Item
}

func Merging[Item any, Key comparable](
	keyFunc func(Item) Key,
	mergeFunc func(Item, Item) Item,
) *MergingBuffer[Item, Key] {
	if keyFunc == nil {
		panic("key func can't be nil")
	}
	if mergeFunc == nil {
		panic("merge func can't be nil")
	}
	return &MergingBuffer[Item, Key]{
		items:     make([]Item, 0),
		index:     make(map[Key]int),
		keyFunc:   keyFunc,
		mergeFunc: mergeFunc,
	}
}

func (b *MergingBuffer[Item, Key]) Push(item Item) {
	b.pushes += 1
	key := b.keyFunc(item)
	if i, ok := b.index[key]; ok {
		b.items[i] = b.mergeFunc(b.items[i], item)
		return
	}
	b.index[key] = len(b.items)
	b.items = append(b.items, item)
}

func (b *MergingBuffer[Item, Key]) Size() int {
	return len(b.items)
}

func (b *MergingBuffer[Item, Key]) Pushes() int {
	return b.pushes
}

func (b *MergingBuffer[Item, Key]) Iter() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, item := range b.items {
			if !yield(item) {
				return
			}
		}
	}
}

func (b *MergingBuffer[Item, Key]) Reset() {
	clear(b.items)
	b.items = b.items[:0]
	clear(b.index)
	b.pushes = 0
}

func (b *MergingBuffer[Item, Key]) Derive() Buffer[Item] {
	return Merging(b.keyFunc, b.mergeFunc)
}
