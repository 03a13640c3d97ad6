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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dnote/scriptorium/pkg/server/app"
)

// NewSettings creates a new Settings controller
func NewSettings(app *app.App) *Settings {
	return &Settings{
		app: app,
	}
}

// Settings is a settings controller
type Settings struct {
	app *app.App
}

// Show returns every setting
func (c *Settings) Show(w http.ResponseWriter, r *http.Request) {
	s, err := c.app.Settings.Load()
	if err != nil {
		handleJSONError(w, err, "loading settings")
		return
	}

	respondJSON(w, http.StatusOK, s)
}

// parseSettings reads the given keys and their values as strings
func parseSettings(r *http.Request) (map[string]string, error) {
	ret := map[string]string{}

	if isJSON(r) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, requestError{msg: "invalid JSON payload: " + err.Error()}
		}

		for k, v := range payload {
			ret[k] = fmt.Sprint(v)
		}

		return ret, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, requestError{msg: "invalid form: " + err.Error()}
	}
	for k := range r.PostForm {
		ret[k] = r.PostForm.Get(k)
	}

	return ret, nil
}

// Update applies a partial update of the settings
func (c *Settings) Update(w http.ResponseWriter, r *http.Request) {
	values, err := parseSettings(r)
	if err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	if err := c.app.UpdateSettings(values); err != nil {
		handleJSONError(w, err, "updating settings")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
