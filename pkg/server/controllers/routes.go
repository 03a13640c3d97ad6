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
	mw "github.com/dnote/scriptorium/pkg/server/middleware"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit mw.Policy
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	WebRoutes   []Route
	APIRoutes   []Route
}

// NewWebRoutes returns a new web routes
func NewWebRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/health", c.Health.Index, mw.NoLimit},
	}
}

// NewAPIRoutes returns a new api routes
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/remotes", c.Remotes.Index, mw.ReadPolicy},
		{"POST", "/remotes", c.Remotes.Create, mw.WritePolicy},
		{"GET", "/remotes/default", c.Remotes.Default, mw.ReadPolicy},
		{"GET", "/remotes/duplicate", c.Remotes.Duplicate, mw.ReadPolicy},
		{"POST", "/remotes/verify", c.Remotes.VerifyAll, mw.TriggerPolicy},
		{"PATCH", "/remotes/{id}", c.Remotes.Update, mw.WritePolicy},
		{"DELETE", "/remotes/{id}", c.Remotes.Delete, mw.WritePolicy},
		{"POST", "/remotes/{id}/verify", c.Remotes.Verify, mw.TriggerPolicy},

		{"GET", "/settings", c.Settings.Show, mw.ReadPolicy},
		{"PATCH", "/settings", c.Settings.Update, mw.WritePolicy},

		{"GET", "/sync", c.Sync.Show, mw.ReadPolicy},
		// attempts are serialized by the scheduler
		{"POST", "/sync", c.Sync.Create, mw.NoLimit},

		{"GET", "/notifications", c.Notifications.Index, mw.ReadPolicy},
		{"DELETE", "/notifications/{id}", c.Notifications.Delete, mw.WritePolicy},
	}
}

func registerRoutes(router *mux.Router, routes []Route) {
	for _, route := range routes {
		router.
			Handle(route.Pattern, mw.ApplyLimit(route.Handler, route.RateLimit)).
			Methods(route.Method)
	}
}

// NotFound is a catch-all handler for requests with no matching handler
func NotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(router, rc.WebRoutes)
	registerRoutes(apiRouter, rc.APIRoutes)

	router.NotFoundHandler = http.HandlerFunc(NotFound)

	return mw.Global(router), nil
}

// NewHandler returns the HTTP handler serving the given app
func NewHandler(a *app.App) (http.Handler, error) {
	ctl := New(a)
	rc := RouteConfig{
		WebRoutes:   NewWebRoutes(a, ctl),
		APIRoutes:   NewAPIRoutes(a, ctl),
		Controllers: ctl,
	}

	return NewRouter(a, rc)
}
