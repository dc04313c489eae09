// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

// Producer is the interface for adding elements.
//
// The element is passed by pointer to avoid copying large structs. The
// structure stores a copy of the pointed-to value, so the original can be
// modified after Enqueue returns.
type Producer[T any] interface {
	// Enqueue adds a copy of *elem. It never rejects a value for lack of
	// room; it fails only once the structure is poisoned or closed.
	Enqueue(elem *T) error
}

// Consumer is the interface for removing elements.
type Consumer[T any] interface {
	// Dequeue removes and returns an element.
	// Returns (zero-value, ErrWouldBlock) if the structure was observed empty.
	Dequeue() (T, error)
}

// Container is the combined interface implemented by [Queue] and [Stack].
//
// Example:
//
//	var c msq.Container[Item] = msq.New[Item]()
//	defer c.Close()
//
//	item := Item{ID: 1}
//	if err := c.Enqueue(&item); err != nil {
//	    return err // poisoned or closed
//	}
//	got, err := c.Dequeue()
type Container[T any] interface {
	Producer[T]
	Consumer[T]

	// Size returns the advisory element count.
	Size() int64

	// Poisoned reports whether an invariant violation has been detected.
	Poisoned() bool

	// PoolErrors returns the number of node pool contract violations.
	PoolErrors() int64

	// Close drains remaining elements and releases all nodes.
	Close() error
}

var (
	_ Container[int] = (*Queue[int])(nil)
	_ Container[int] = (*Stack[int])(nil)
)
