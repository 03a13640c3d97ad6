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

package autosync

import (
	"time"

	"github.com/robfig/cron"
)

// Ticker calls a function periodically until stopped
type Ticker interface {
	Stop()
}

// TickerFactory starts a ticker that calls fn every interval
type TickerFactory func(interval time.Duration, fn func()) Ticker

type cronTicker struct {
	c *cron.Cron
}

func (t cronTicker) Stop() {
	t.c.Stop()
}

// NewCronTicker starts a cron schedule that runs fn every interval. Each run
// happens on its own goroutine.
func NewCronTicker(interval time.Duration, fn func()) Ticker {
	c := cron.New()
	c.Schedule(cron.Every(interval), cron.FuncJob(fn))
	c.Start()

	return cronTicker{c: c}
}
