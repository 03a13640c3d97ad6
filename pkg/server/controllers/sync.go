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

package controllers

import (
	"context"
	"net/http"

	"github.com/dnote/scriptorium/pkg/server/app"
)

// NewSync creates a new Sync controller
func NewSync(app *app.App) *Sync {
	return &Sync{
		app: app,
	}
}

// Sync is a synchronization controller
type Sync struct {
	app *app.App
}

// Show returns the state of the auto-sync scheduler
func (c *Sync) Show(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, c.app.SyncStatus())
}

// Create runs a synchronization attempt and responds once it is over. A
// client going away does not cut the attempt short.
func (c *Sync) Create(w http.ResponseWriter, r *http.Request) {
	if err := c.app.SyncNow(context.WithoutCancel(r.Context())); err != nil {
		handleJSONError(w, err, "synchronizing")
		return
	}

	respondJSON(w, http.StatusOK, c.app.SyncStatus())
}
