package tenanthub_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub"
)

func TestBarrier_FiresOnceAfterAllArrivals(t *testing.T) {
	const n = 50
	var arrived atomic.Int64
	var fired atomic.Int64
	var arrivedAtFire int64

	b := tenanthub.NewBarrier(n, func() {
		fired.Add(1)
		arrivedAtFire = arrived.Load()
	})

	var wg sync.WaitGroup
	var winners atomic.Int64
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arrived.Add(1)
			if b.Arrive() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	<-b.Done()
	assert.Equal(t, int64(1), fired.Load())
	assert.Equal(t, int64(1), winners.Load())
	assert.Equal(t, int64(n), arrivedAtFire)
	assert.Equal(t, int64(n), b.Arrived())
}

func TestBarrier_ExtraArrivalsIgnored(t *testing.T) {
	fired := 0
	b := tenanthub.NewBarrier(2, func() { fired++ })

	assert.False(t, b.Arrive())
	assert.True(t, b.Arrive())
	assert.False(t, b.Arrive())
	assert.Equal(t, 1, fired)
}

func TestBarrier_ZeroFiresImmediately(t *testing.T) {
	fired := 0
	b := tenanthub.NewBarrier(0, func() { fired++ })

	require.Equal(t, 1, fired)
	select {
	case <-b.Done():
	default:
		t.Fatal("done should be closed")
	}
	assert.False(t, b.Arrive())
	assert.Equal(t, 1, fired)
}

func TestBarrier_NotDoneBeforeLastArrival(t *testing.T) {
	b := tenanthub.NewBarrier(3, nil)
	b.Arrive()
	b.Arrive()

	select {
	case <-b.Done():
		t.Fatal("barrier fired early")
	default:
	}

	b.Arrive()
	<-b.Done()
}
