package tenanthub

// Barrier runs a function once after a fixed number of arrivals.
//
// Arrivals may come from any goroutine. Exactly one Arrive call, the
// n-th, runs fn; arrivals past n have no effect.
type Barrier struct {
	n     int64
	count AtomicCounter
	fn    func()
	done  chan struct{}
}

// NewBarrier creates a barrier expecting n arrivals.
// If n <= 0, fn runs before NewBarrier returns.
func NewBarrier(n int, fn func()) *Barrier {
	b := &Barrier{
		n:    int64(n),
		fn:   fn,
		done: make(chan struct{}),
	}
	if n <= 0 {
		b.fire()
	}
	return b
}

// Arrive records one arrival. It returns true for the arrival that fired.
func (b *Barrier) Arrive() bool {
	if b.n <= 0 {
		return false
	}
	if b.count.IncrementAndGet() != b.n {
		return false
	}
	b.fire()
	return true
}

// Arrived returns the number of arrivals so far.
func (b *Barrier) Arrived() int64 {
	return b.count.Load()
}

// Done returns a channel closed after fn has returned.
func (b *Barrier) Done() <-chan struct{} {
	return b.done
}

func (b *Barrier) fire() {
	if b.fn != nil {
		b.fn()
	}
	close(b.done)
}
