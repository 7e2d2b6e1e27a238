package tenanthub

import "sync/atomic"

// AtomicCounter is a monotonic counter safe for concurrent use.
// The zero value is ready to use and starts at 0.
type AtomicCounter struct {
	v atomic.Int64
}

// IncrementAndGet adds one and returns the new value.
func (c *AtomicCounter) IncrementAndGet() int64 {
	return c.v.Add(1)
}

// Load returns the current value.
func (c *AtomicCounter) Load() int64 {
	return c.v.Load()
}
