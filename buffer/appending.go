package buffer

import (
	"iter"
	"slices"
)

var _ Buffer[any] = (*AppendingBuffer[any])(nil)

// AppendingBuffer keeps every pushed item in push order.
type AppendingBuffer[Item any] struct {
	items []Item
}

func Appending[Item any]() *AppendingBuffer[Item] {
	return &AppendingBuffer[Item]{
		items: make([]Item, 0),
	}
}

func (b *AppendingBuffer[Item]) Push(item Item) {
	b.items = append(b.items, item)
}

func (b *AppendingBuffer[Item]) Size() int {
	return len(b.items)
}

func (b *AppendingBuffer[Item]) Pushes() int {
	return len(b.items)
}

func (b *AppendingBuffer[Item]) Iter() iter.Seq[Item] {
	return slices.Values(b.items)
}

func (b *AppendingBuffer[Item]) Reset() {
	clear(b.items)
	b.items = b.items[:0]
}

func (b *AppendingBuffer[Item]) Derive() Buffer[Item] {
	return Appending[Item]()
}
