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
	"testing"
	"time"

	"github.com/dnote/scriptorium/pkg/assert"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(v string) func() {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, v)
	}
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer_coalesces(t *testing.T) {
	var r recorder
	d := NewDebouncer(20 * time.Millisecond)

	d.Do("auto_sync_time", r.record("1"))
	d.Do("auto_sync_time", r.record("10"))
	d.Do("auto_sync_time", r.record("100"))
	d.Do("color_scheme", r.record("dark"))

	assert.Equal(t, d.Pending(), 2, "pending count mismatch")

	time.Sleep(100 * time.Millisecond)
	d.Flush()

	got := r.get()
	assert.Equal(t, len(got), 2, "only the last call per key should run")
	assert.Equal(t, d.Pending(), 0, "nothing should be pending")

	seen := map[string]bool{}
	for _, c := range got {
		seen[c] = true
	}
	assert.Equal(t, seen["100"], true, "last interval write should run")
	assert.Equal(t, seen["dark"], true, "color scheme write should run")
}

func TestDebouncer_flush(t *testing.T) {
	var r recorder
	d := NewDebouncer(time.Hour)

	d.Do("k", r.record("a"))
	d.Do("k", r.record("b"))
	d.Flush()

	assert.DeepEqual(t, r.get(), []string{"b"}, "flush should run the last call")
}

func TestDebouncer_zeroDelay(t *testing.T) {
	var r recorder
	d := NewDebouncer(0)

	d.Do("k", r.record("a"))
	d.Do("k", r.record("b"))

	assert.DeepEqual(t, r.get(), []string{"a", "b"}, "calls should run immediately")
}
