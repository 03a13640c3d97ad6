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

package output

import (
	"fmt"
	"time"
)

func pluralize(singular string, count int64) string {
	if count == 1 {
		return singular
	}

	return singular + "s"
}

var units = []struct {
	noun string
	d    time.Duration
}{
	{"year", 52 * 7 * 24 * time.Hour},
	{"month", 4 * 7 * 24 * time.Hour},
	{"week", 7 * 24 * time.Hour},
	{"day", 24 * time.Hour},
	{"hour", time.Hour},
	{"minute", time.Minute},
}

// relativeTime describes t relative to now in the largest whole unit
func relativeTime(now, t time.Time) string {
	diff := now.Sub(t)

	future := diff < 0
	if future {
		diff = -diff
	}

	for _, u := range units {
		interval := int64(diff / u.d)
		if interval < 1 {
			continue
		}

		text := fmt.Sprintf("%d %s", interval, pluralize(u.noun, interval))
		if future {
			return "in " + text
		}

		return text + " ago"
	}

	return "just now"
}
