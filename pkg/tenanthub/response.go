package tenanthub

import (
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/observability"
)

// pendingResponse is one response listener waiting on a trigger event.
type pendingResponse struct {
	fn    ResponseFunc
	timer clock.Timer
}

// responseTable correlates response events to the listeners waiting on
// their trigger. Every entry is consumed exactly once: by a response, by
// its deadline, or by cancellation. Whichever removes the entry from the
// table first wins.
type responseTable struct {
	clock     clock.Clock
	observe   func(triggerID, outcome string, timeout time.Duration)
	recovered func(triggerID string, err error)

	mu      sync.Mutex
	nextKey uint64
	entries map[string]map[uint64]*pendingResponse
}

func newResponseTable(
	clk clock.Clock,
	observe func(triggerID, outcome string, timeout time.Duration),
	recovered func(triggerID string, err error),
) *responseTable {
	return &responseTable{
		clock:     clk,
		observe:   observe,
		recovered: recovered,
		entries:   make(map[string]map[uint64]*pendingResponse),
	}
}

// add registers fn to receive the response to triggerID.
func (t *responseTable) add(triggerID string, timeout time.Duration, fn ResponseFunc) CancelFunc {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextKey++
	key := t.nextKey

	pending := &pendingResponse{fn: fn}
	byKey, ok := t.entries[triggerID]
	if !ok {
		byKey = make(map[uint64]*pendingResponse)
		t.entries[triggerID] = byKey
	}
	byKey[key] = pending

	pending.timer = t.clock.AfterFunc(timeout, func() {
		if p := t.take(triggerID, key); p != nil {
			t.observe(triggerID, observability.OutcomeTimeout, timeout)
			t.fire(triggerID, p, nil)
		}
	})

	return func() bool {
		p := t.take(triggerID, key)
		if p == nil {
			return false
		}
		p.timer.Stop()
		t.observe(triggerID, observability.OutcomeCancelled, timeout)
		return true
	}
}

// take removes one entry and returns it, or nil if it was already consumed.
func (t *responseTable) take(triggerID string, key uint64) *pendingResponse {
	t.mu.Lock()
	defer t.mu.Unlock()

	byKey, ok := t.entries[triggerID]
	if !ok {
		return nil
	}
	p, ok := byKey[key]
	if !ok {
		return nil
	}
	delete(byKey, key)
	if len(byKey) == 0 {
		delete(t.entries, triggerID)
	}
	return p
}

// resolve hands resp to every listener waiting on triggerID and reports
// how many fired.
func (t *responseTable) resolve(triggerID string, resp *event.Event) int {
	t.mu.Lock()
	byKey := t.entries[triggerID]
	delete(t.entries, triggerID)
	t.mu.Unlock()

	for _, p := range byKey {
		p.timer.Stop()
		t.observe(triggerID, observability.OutcomeResponse, 0)
		t.fire(triggerID, p, resp)
	}
	return len(byKey)
}

// fire calls the listener with resp. A panic is reported to recovered and
// does not stop other listeners waiting on the same trigger.
func (t *responseTable) fire(triggerID string, p *pendingResponse, resp *event.Event) {
	defer func() {
		if r := recover(); r != nil && t.recovered != nil {
			t.recovered(triggerID, fmt.Errorf("response listener panic: %v", r))
		}
	}()
	p.fn(resp)
}

// len returns the number of pending listeners.
func (t *responseTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, byKey := range t.entries {
		n += len(byKey)
	}
	return n
}
