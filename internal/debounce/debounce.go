// Package debounce coalesces bursts of triggers into a single call.
package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultWait is the quiet period used for search input.
const DefaultWait = 300 * time.Millisecond

// Debouncer calls its handler once a burst of triggers has been quiet for the
// wait period, with the value of the last trigger. Earlier values are dropped.
type Debouncer[T any] struct {
	clock   clockwork.Clock
	wait    time.Duration
	handler func(T)

	mu    sync.Mutex
	timer clockwork.Timer
	gen   uint64
	last  T
}

// New creates a Debouncer.
func New[T any](clock clockwork.Clock, wait time.Duration, handler func(T)) *Debouncer[T] {
	return &Debouncer[T]{clock: clock, wait: wait, handler: handler}
}

// Trigger records v and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = v
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(gen) })
}

// Stop discards any pending call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// Superseded by a later trigger whose timer is still pending.
		d.mu.Unlock()
		return
	}
	v := d.last
	d.timer = nil
	d.mu.Unlock()

	d.handler(v)
}
