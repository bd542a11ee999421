package collab

import (
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Debouncer collapses bursts of saves per key into one trailing call.
// Re-scheduling atomically cancels and replaces the pending task for that
// key; tasks never stack. Only the latest content per quiet window is
// ever persisted.
type Debouncer struct {
	delay time.Duration
	run   func(key uuid.UUID, content string)

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingSave
}

type pendingSave struct {
	timer   *time.Timer
	content string
}

// NewDebouncer constructs a debouncer invoking run after delay of quiet.
func NewDebouncer(delay time.Duration, run func(key uuid.UUID, content string)) *Debouncer {
	return &Debouncer{delay: delay, run: run, pending: make(map[uuid.UUID]*pendingSave)}
}

// Schedule records content for key and (re)starts its quiet timer.
func (d *Debouncer) Schedule(key uuid.UUID, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[key]; ok {
		p.content = content
		p.timer.Reset(d.delay)
		return
	}
	p := &pendingSave{content: content}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(key, p) })
	d.pending[key] = p
}

// fire runs the save if p is still the registered task for key. The pointer
// check drops callbacks that lost a race with Flush or a re-Schedule.
func (d *Debouncer) fire(key uuid.UUID, p *pendingSave) {
	d.mu.Lock()
	cur, ok := d.pending[key]
	if !ok || cur != p {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	content := p.content
	d.mu.Unlock()
	d.run(key, content)
}

// Flush persists key's pending content immediately, if any.
func (d *Debouncer) Flush(key uuid.UUID) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
	if ok {
		d.run(key, p.content)
	}
}

// FlushAll persists everything still pending (shutdown path).
func (d *Debouncer) FlushAll() {
	d.mu.Lock()
	keys := make([]uuid.UUID, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.mu.Unlock()
	for _, k := range keys {
		d.Flush(k)
	}
}

// Pending reports whether a save is queued for key.
func (d *Debouncer) Pending(key uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}
