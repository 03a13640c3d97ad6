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
	"net/http"

	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/presenters"
	"github.com/pkg/errors"
)

// NewNotifications creates a new Notifications controller
func NewNotifications(app *app.App) *Notifications {
	return &Notifications{
		app: app,
	}
}

// Notifications is a notification controller
type Notifications struct {
	app *app.App
}

// Index lists the live notifications
func (c *Notifications) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, presenters.PresentNotifications(c.app.Notifications.List()))
}

// Delete dismisses a notification
func (c *Notifications) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		handleJSONError(w, err, "dismissing notification")
		return
	}

	if !c.app.Notifications.Dismiss(id) {
		handleJSONError(w, errors.Wrapf(database.ErrNotFound, "notification %s", id), "dismissing notification")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
