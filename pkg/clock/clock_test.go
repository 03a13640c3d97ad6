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

package clock

import (
	"testing"
	"time"

	"github.com/dnote/scriptorium/pkg/assert"
)

func TestMock(t *testing.T) {
	c := NewMock()
	start := c.Now()

	assert.Equal(t, start, time.Date(2009, time.November, 10, 23, 0, 0, 0, time.UTC), "initial time mismatch")

	got := c.Advance(5 * time.Second)
	assert.Equal(t, got, start.Add(5*time.Second), "advanced time mismatch")
	assert.Equal(t, c.Now(), start.Add(5*time.Second), "now mismatch after advance")

	later := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	c.SetNow(later)
	assert.Equal(t, c.Now(), later, "now mismatch after set")
}
