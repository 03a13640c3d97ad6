/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package settings

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is the quiet period after which a burst of writes is flushed
const DefaultDebounceDelay = 500 * time.Millisecond

// Debouncer coalesces bursts of calls per key so that only the last call of a
// burst runs, once the key has been quiet for the delay
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]func()
	wg      sync.WaitGroup
}

// NewDebouncer returns a debouncer with the given quiet period. A zero delay
// runs every call immediately.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]func()),
	}
}

// Do schedules fn under the key, replacing any call still pending for it
func (d *Debouncer) Do(key string, fn func()) {
	if d.delay <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok && t.Stop() {
		d.wg.Done()
	}

	d.pending[key] = fn
	d.wg.Add(1)

	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		if fn := d.take(key, &t); fn != nil {
			fn()
		}
	})
	d.timers[key] = t
}

// take removes and returns the pending call of the key if the given timer is
// still the one scheduled for it. A nil timer matches any.
func (d *Debouncer) take(key string, t **time.Timer) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t != nil && d.timers[key] != *t {
		return nil
	}

	fn := d.pending[key]
	delete(d.pending, key)
	delete(d.timers, key)

	return fn
}

// Flush runs every pending call now and waits for calls already firing
func (d *Debouncer) Flush() {
	d.mu.Lock()
	var keys []string
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
			keys = append(keys, key)
		}
	}
	d.mu.Unlock()

	for _, key := range keys {
		if fn := d.take(key, nil); fn != nil {
			fn()
		}
	}

	d.wg.Wait()
}

// Pending returns the number of keys with a call waiting to run
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.pending)
}
