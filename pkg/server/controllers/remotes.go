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
	"github.com/dnote/scriptorium/pkg/server/presenters"
	"github.com/dnote/scriptorium/pkg/server/remotes"
)

// NewRemotes creates a new Remotes controller
func NewRemotes(app *app.App) *Remotes {
	return &Remotes{
		app: app,
	}
}

// Remotes is a remote server controller
type Remotes struct {
	app *app.App
}

// remoteForm holds the fields given by the client. Absent fields keep their
// current value.
type remoteForm struct {
	DBType   *string `json:"db_type" schema:"db_type"`
	Host     *string `json:"host" schema:"host"`
	Port     *int    `json:"port" schema:"port"`
	DB       *string `json:"db" schema:"db"`
	User     *string `json:"user" schema:"user"`
	Password *string `json:"password" schema:"password"`
}

// apply overlays the form on p. A masked password leaves the stored one.
func (f remoteForm) apply(p remotes.Params) remotes.Params {
	if f.DBType != nil {
		if f.Port == nil && *f.DBType != p.DBType {
			p.Port = remotes.DefaultPort(*f.DBType)
		}
		p.DBType = *f.DBType
	}
	if f.Host != nil {
		p.Host = *f.Host
	}
	if f.Port != nil {
		p.Port = *f.Port
	}
	if f.DB != nil {
		p.DB = *f.DB
	}
	if f.User != nil {
		p.User = *f.User
	}
	if f.Password != nil && *f.Password != presenters.PasswordMask {
		p.Password = *f.Password
	}

	return p
}

// Index lists the remote servers with their verification status
func (c *Remotes) Index(w http.ResponseWriter, r *http.Request) {
	rs, err := c.app.ListRemotes()
	if err != nil {
		handleJSONError(w, err, "listing remote servers")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentRemotes(rs))
}

// Default returns the template of a new remote server
func (c *Remotes) Default(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, presenters.PresentParams(remotes.DefaultParams()))
}

type duplicateQuery struct {
	Host    string `schema:"host"`
	Port    int    `schema:"port"`
	DB      string `schema:"db"`
	Exclude string `schema:"exclude"`
}

// DuplicateResp is the response of the duplicate check
type DuplicateResp struct {
	Duplicate bool `json:"duplicate"`
}

// Duplicate reports whether a descriptor with the host, port and database in
// the query exists
func (c *Remotes) Duplicate(w http.ResponseWriter, r *http.Request) {
	var q duplicateQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	dup, err := c.app.Remotes.IsDuplicate(remotes.Params{Host: q.Host, Port: q.Port, DB: q.DB}, q.Exclude)
	if err != nil {
		handleJSONError(w, err, "checking duplicate")
		return
	}

	respondJSON(w, http.StatusOK, DuplicateResp{Duplicate: dup})
}

// CreateRemoteResp is the response of Create
type CreateRemoteResp struct {
	ID string `json:"id"`
}

// Create registers a remote server
func (c *Remotes) Create(w http.ResponseWriter, r *http.Request) {
	var form remoteForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	id, err := c.app.CreateRemote(form.apply(remotes.DefaultParams()))
	if err != nil {
		handleJSONError(w, err, "creating remote server")
		return
	}

	respondJSON(w, http.StatusCreated, CreateRemoteResp{ID: id})
}

// Update changes the fields of a remote server
func (c *Remotes) Update(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		handleJSONError(w, err, "finding remote server")
		return
	}

	var form remoteForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	s, err := c.app.Remotes.Get(id)
	if err != nil {
		handleJSONError(w, err, "finding remote server")
		return
	}

	if err := c.app.UpdateRemote(id, form.apply(remotes.FromServer(s))); err != nil {
		handleJSONError(w, err, "updating remote server")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a remote server
func (c *Remotes) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		// nothing to delete
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := c.app.DeleteRemote(id); err != nil {
		handleJSONError(w, err, "deleting remote server")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyAll re-checks every remote server
func (c *Remotes) VerifyAll(w http.ResponseWriter, r *http.Request) {
	if err := c.app.Verifier.VerifyAll(); err != nil {
		handleJSONError(w, err, "verifying remote servers")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Verify re-checks one remote server
func (c *Remotes) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		handleJSONError(w, err, "verifying remote server")
		return
	}

	if err := c.app.Verifier.Verify(id); err != nil {
		handleJSONError(w, err, "verifying remote server")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
