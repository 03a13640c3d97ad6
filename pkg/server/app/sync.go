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

	"github.com/dnote/scriptorium/pkg/server/autosync"
)

// SyncNow runs a synchronization attempt right away
func (a *App) SyncNow(ctx context.Context) error {
	return a.Scheduler.SynchronizeNow(ctx)
}

// SyncStatus returns the state of the auto-sync scheduler
func (a *App) SyncStatus() autosync.Status {
	return a.Scheduler.Status()
}
