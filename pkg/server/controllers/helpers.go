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
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dnote/scriptorium/pkg/server/autosync"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/helpers"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/dnote/scriptorium/pkg/server/reconcile"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/dnote/scriptorium/pkg/server/settings"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

var decoder = newDecoder()

// routeID returns the id route variable. Ids are uuids, so anything else
// names no record.
func routeID(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if !helpers.ValidateUUID(id) {
		return "", errors.Wrapf(database.ErrNotFound, "id '%s'", id)
	}

	return id, nil
}

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// requestError is an error for a payload that could not be read
type requestError struct {
	msg string
}

func (e requestError) Error() string {
	return e.msg
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// parseRequestData decodes a JSON body or a form into v
func parseRequestData(r *http.Request, v interface{}) error {
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return requestError{msg: "invalid JSON payload: " + err.Error()}
		}

		return nil
	}

	if err := r.ParseForm(); err != nil {
		return requestError{msg: "invalid form: " + err.Error()}
	}
	if err := decoder.Decode(v, r.PostForm); err != nil {
		return requestError{msg: "invalid form: " + err.Error()}
	}

	return nil
}

// parseQuery decodes the query string into v
func parseQuery(r *http.Request, v interface{}) error {
	if err := decoder.Decode(v, r.URL.Query()); err != nil {
		return requestError{msg: "invalid query: " + err.Error()}
	}

	return nil
}

func errorStatus(err error) int {
	cause := errors.Cause(err)

	switch {
	case cause == database.ErrNotFound:
		return http.StatusNotFound
	case cause == remotes.ErrDuplicate:
		return http.StatusConflict
	case cause == settings.ErrInvalidValue, cause == settings.ErrUnknownKey, remotes.IsValidationError(err):
		return http.StatusBadRequest
	case reconcile.IsSyncError(err):
		return http.StatusBadGateway
	case cause == autosync.ErrClosed, cause == context.Canceled:
		return http.StatusServiceUnavailable
	}

	if _, ok := cause.(requestError); ok {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// handleJSONError responds with the status code matching the error. Internal
// errors are logged and their details are not exposed.
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	status := errorStatus(err)

	if status == http.StatusInternalServerError {
		log.ErrorWrap(err, msg)
		http.Error(w, http.StatusText(status), status)
		return
	}

	log.WithFields(log.Fields{
		"status": status,
		"error":  err.Error(),
	}).Debug(msg)

	http.Error(w, err.Error(), status)
}

// respondJSON encodes v as the response body
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}
