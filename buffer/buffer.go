// This package contains the [Buffer] and [Window] interfaces and their implementations.
package buffer

import "iter"

// Buffer is an in-memory container for items.
//
// Implementations are not considered thread-safe and each instance is used by a single worker.
type Buffer[Item any] interface {
	// Push adds an item to the buffer.
	Push(item Item)
	// Size returns the number of items in the buffer.
	Size() int
	// Pushes returns the number of pushes made to buffer, which can be different if the buffer
	// performs some kind of aggregation on pushes.
	Pushes() int
	// Iter returns a sequence of all items in the buffer.
	Iter() iter.Seq[Item]
	// Reset clears all items from the buffer.
	Reset()
	// Derive returns a new buffer instance with the same settings.
	//
	// The returned buffer maintains its own internal state independent of the original.
	Derive() Buffer[Item]
}

// Window is a capacity-limited, sorted and deduplicated [Buffer].
//
// Items are identified by a key and ordered by a comparator. When the window grows past its
// capacity, the items that sort last are evicted.
type Window[Item any] interface {
	Buffer[Item]
	// Add merges a batch of items into the window and reports whether anything was inserted or
	// replaced. When it returns false, the window (including the slice returned by Items) is left
	// untouched.
	Add(items ...Item) bool
	// Items returns the current contents in sort order.
	//
	// The returned slice is shared with the window and must not be modified. Until the next
	// effective Add or Clear, every call returns the same slice.
	Items() []Item
	// Clear removes all items from the window.
	Clear()
	// Evictions returns the number of items evicted by truncation over the window's lifetime.
	Evictions() int
}

// entry is a window item with the sequence number of its key's first insertion, used to break
// ties between items that compare equal.
type entry[Item any] struct {
	item Item
	seq  uint64
}
