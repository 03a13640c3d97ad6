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

package app

import (
	"context"
	"testing"
	"time"

	"github.com/dnote/scriptorium/pkg/clock"
	"github.com/dnote/scriptorium/pkg/server/autosync"
	"github.com/dnote/scriptorium/pkg/server/config"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/testutils"
	"github.com/pkg/errors"
)

type nopTicker struct{}

func (nopTicker) Stop() {}

// NopTickerFactory arms timers that never fire
func NopTickerFactory(time.Duration, func()) autosync.Ticker {
	return nopTicker{}
}

// StaticChecker reports every remote server with the same result
type StaticChecker struct {
	Err error
}

// Check implements verify.Checker
func (c StaticChecker) Check(ctx context.Context, s database.RemoteServer) error {
	return c.Err
}

// StaticSynchronizer completes every attempt with the same result
type StaticSynchronizer struct {
	Err error
}

// Synchronize implements reconcile.Synchronizer
func (s StaticSynchronizer) Synchronize(ctx context.Context) error {
	return s.Err
}

// NewTest returns an app for a testing environment backed by an in-memory
// database. Collaborators left nil in p never touch the network.
func NewTest(t *testing.T, p Params) *App {
	if p.DB == nil {
		p.DB = testutils.InitMemoryDB(t)
	}
	if p.Clock == nil {
		p.Clock = clock.NewMock()
	}
	if p.Config.AppEnv == "" {
		p.Config = config.Config{
			AppEnv:   config.AppEnvTest,
			Addr:     "127.0.0.1:0",
			DBPath:   ":memory:",
			LogLevel: "error",
		}
	}
	if p.Checker == nil {
		p.Checker = StaticChecker{}
	}
	if p.Synchronizer == nil {
		p.Synchronizer = StaticSynchronizer{}
	}
	if p.TickerFactory == nil {
		p.TickerFactory = NopTickerFactory
	}

	a, err := New(p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating test app"))
	}
	t.Cleanup(func() { a.Close(context.Background()) })

	return a
}
