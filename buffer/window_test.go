package buffer_test

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"
	"unsafe"

	"github.com/teenjuna/rolling/buffer"
	"github.com/teenjuna/rolling/internal/testing/require"
)

type Event struct {
	Key  string
	Time int
}

func key(e Event) string { return e.Key }

func byTime(a, b Event) int { return cmp.Compare(a.Time, b.Time) }

func newerOrEqual(existing, incoming Event) bool { return incoming.Time >= existing.Time }

type windowFactory struct {
	name string
	new  func(maxSize int, replace func(existing, incoming Event) bool) buffer.Window[Event]
}

var factories = []windowFactory{
	{
		name: "Bounded",
		new: func(maxSize int, replace func(existing, incoming Event) bool) buffer.Window[Event] {
			b := buffer.Bounded(maxSize, key, byTime)
			if replace != nil {
				b.WithReplace(replace)
			}
			return b
		},
	},
	{
		name: "Tree",
		new: func(maxSize int, replace func(existing, incoming Event) bool) buffer.Window[Event] {
			b := buffer.Tree(2, maxSize, key, byTime)
			if replace != nil {
				b.WithReplace(replace)
			}
			return b
		},
	},
}

func eachWindow(t *testing.T, fn func(t *testing.T, f windowFactory)) {
	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			fn(t, f)
		})
	}
}

func sameSlice(a, b []Event) bool {
	return len(a) == len(b) && unsafe.SliceData(a) == unsafe.SliceData(b)
}

func TestWindowInvariants(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		const maxSize = 50
		w := f.new(maxSize, newerOrEqual)

		for range 200 {
			batch := make([]Event, rand.IntN(20))
			for i := range batch {
				batch[i] = Event{
					Key:  strconv.Itoa(rand.IntN(100)),
					Time: rand.IntN(1000),
				}
			}
			w.Add(batch...)

			items := w.Items()
			require.Equal(t, w.Size() <= maxSize, true)
			require.Equal(t, len(items), w.Size())
			require.Equal(t, slices.IsSortedFunc(items, byTime), true)

			seen := make(map[string]bool, len(items))
			for _, item := range items {
				require.Equal(t, seen[item.Key], false)
				seen[item.Key] = true
			}
		}
	})
}

func TestWindowReferenceStability(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(3, nil)
		require.Equal(t, w.Add(Event{"a", 1}, Event{"b", 2}), true)

		first := w.Items()
		second := w.Items()
		require.Equal(t, sameSlice(first, second), true)

		require.Equal(t, w.Add(), false)
		require.Equal(t, sameSlice(first, w.Items()), true)

		require.Equal(t, w.Add(Event{"a", 100}), false)
		require.Equal(t, sameSlice(first, w.Items()), true)
		require.Equal(t, w.Items(), []Event{{"a", 1}, {"b", 2}})

		require.Equal(t, w.Add(Event{"c", 0}), true)
		third := w.Items()
		require.Equal(t, sameSlice(first, third), false)
		require.Equal(t, third, []Event{{"c", 0}, {"a", 1}, {"b", 2}})
		require.Equal(t, first, []Event{{"a", 1}, {"b", 2}})
	})
}

func TestWindowReplacePolicy(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(10, newerOrEqual)

		require.Equal(t, w.Add(Event{"A", 10}), true)
		require.Equal(t, w.Add(Event{"A", 20}), true)
		require.Equal(t, w.Items(), []Event{{"A", 20}})

		before := w.Items()
		require.Equal(t, w.Add(Event{"A", 5}), false)
		require.Equal(t, sameSlice(before, w.Items()), true)
		require.Equal(t, w.Items(), []Event{{"A", 20}})
	})
}

func TestWindowSameKeyWithinBatch(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(10, newerOrEqual)
		require.Equal(t, w.Add(Event{"A", 1}, Event{"A", 3}, Event{"A", 2}), true)
		require.Equal(t, w.Items(), []Event{{"A", 3}})
		require.Equal(t, w.Pushes(), 3)

		w = f.new(10, nil)
		require.Equal(t, w.Add(Event{"A", 3}, Event{"A", 1}), true)
		require.Equal(t, w.Items(), []Event{{"A", 3}})
	})
}

func TestWindowTruncation(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(2, nil)
		require.Equal(t, w.Add(Event{"5", 5}, Event{"1", 1}, Event{"3", 3}), true)
		require.Equal(t, w.Items(), []Event{{"1", 1}, {"3", 3}})
		require.Equal(t, w.Evictions(), 1)

		// An evicted key is unknown again, so it is inserted (and evicted) as a new item.
		require.Equal(t, w.Add(Event{"5", 5}), true)
		require.Equal(t, w.Items(), []Event{{"1", 1}, {"3", 3}})
		require.Equal(t, w.Evictions(), 2)

		require.Equal(t, w.Add(Event{"0", 0}), true)
		require.Equal(t, w.Items(), []Event{{"0", 0}, {"1", 1}})
		require.Equal(t, w.Size(), 2)
	})
}

func TestWindowTies(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(3, newerOrEqual)
		w.Add(Event{"a", 1}, Event{"b", 1})
		w.Add(Event{"c", 1})
		require.Equal(t, w.Items(), []Event{{"a", 1}, {"b", 1}, {"c", 1}})

		w.Add(Event{"a", 1})
		require.Equal(t, w.Items(), []Event{{"a", 1}, {"b", 1}, {"c", 1}})

		w.Add(Event{"d", 1})
		require.Equal(t, w.Items(), []Event{{"a", 1}, {"b", 1}, {"c", 1}})
	})
}

func TestWindowScenarioA(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(3, nil)
		require.Equal(t, w.Add(Event{"x", 2}), true)
		require.Equal(t, w.Items(), []Event{{"x", 2}})
		require.Equal(t, w.Add(Event{"y", 1}, Event{"x", 99}), true)
		require.Equal(t, w.Items(), []Event{{"y", 1}, {"x", 2}})
	})
}

func TestWindowScenarioB(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(2, newerOrEqual)
		require.Equal(t, w.Add(Event{"a", 5}), true)
		require.Equal(t, w.Add(Event{"b", 1}), true)
		require.Equal(t, w.Add(Event{"a", 10}), true)
		require.Equal(t, w.Items(), []Event{{"b", 1}, {"a", 10}})
		require.Equal(t, w.Size(), 2)
	})
}

func TestWindowScenarioC(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(3, nil)
		w.Add(Event{"a", 1}, Event{"b", 2})
		before := w.Items()

		w.Clear()
		require.Equal(t, w.Size(), 0)
		after := w.Items()
		require.Equal(t, len(after), 0)
		require.NotNil(t, after)
		require.Equal(t, sameSlice(before, after), false)
		require.Equal(t, before, []Event{{"a", 1}, {"b", 2}})

		w.Clear()
		require.Equal(t, w.Size(), 0)

		require.Equal(t, w.Add(Event{"a", 7}), true)
		require.Equal(t, w.Items(), []Event{{"a", 7}})
	})
}

func TestWindowDerive(t *testing.T) {
	eachWindow(t, func(t *testing.T, f windowFactory) {
		w := f.new(2, newerOrEqual)
		w.Add(Event{"a", 1})

		d := w.Derive().(buffer.Window[Event])
		require.Equal(t, d.Size(), 0)

		d.Add(Event{"a", 1}, Event{"a", 2}, Event{"b", 3}, Event{"c", 4})
		require.Equal(t, d.Items(), []Event{{"a", 2}, {"b", 3}})
		require.Equal(t, w.Items(), []Event{{"a", 1}})
		require.Equal(t, slices.Collect(d.Iter()), d.Items())
	})
}

func TestWindowImplementationsAgree(t *testing.T) {
	bounded := factories[0].new(25, newerOrEqual)
	tree := factories[1].new(25, newerOrEqual)

	for range 500 {
		batch := make([]Event, rand.IntN(8))
		for i := range batch {
			batch[i] = Event{
				Key:  strconv.Itoa(rand.IntN(60)),
				Time: rand.IntN(50),
			}
		}
		require.Equal(t, bounded.Add(batch...), tree.Add(batch...))
		require.Equal(t, bounded.Items(), tree.Items())
		require.Equal(t, bounded.Evictions(), tree.Evictions())
	}
}

func TestWindowOptions(t *testing.T) {
	require.PanicWithError(t, "max size can't be < 1", func() {
		_ = buffer.Bounded(0, key, byTime)
	})
	require.PanicWithError(t, "key func can't be nil", func() {
		_ = buffer.Bounded[Event, string](1, nil, byTime)
	})
	require.PanicWithError(t, "compare func can't be nil", func() {
		_ = buffer.Bounded(1, key, nil)
	})
	require.PanicWithError(t, "replace func can't be nil", func() {
		_ = buffer.Bounded(1, key, byTime).WithReplace(nil)
	})
	require.PanicWithError(t, "degree can't be < 2", func() {
		_ = buffer.Tree(1, 1, key, byTime)
	})
	require.PanicWithError(t, "max size can't be < 1", func() {
		_ = buffer.Tree(2, 0, key, byTime)
	})
}
