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
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/dnote/scriptorium/pkg/server/verify"
)

// RemoteStatus is a remote server with the result of its latest check
type RemoteStatus struct {
	Server database.RemoteServer
	Status verify.Status
}

// ListRemotes returns every remote server with its verification status.
// Servers that were never checked are pending.
func (a *App) ListRemotes() ([]RemoteStatus, error) {
	servers, err := a.Remotes.List()
	if err != nil {
		return nil, err
	}

	statuses := a.Verifier.Statuses()

	ret := make([]RemoteStatus, 0, len(servers))
	for _, s := range servers {
		st, ok := statuses[s.ID]
		if !ok {
			st = verify.Status{ServerID: s.ID, State: verify.StatePending}
		}

		ret = append(ret, RemoteStatus{Server: s, Status: st})
	}

	return ret, nil
}

// reverify checks every remote server again after the registry changed
func (a *App) reverify() {
	if err := a.Verifier.VerifyAll(); err != nil {
		log.ErrorWrap(err, "verifying remote servers")
	}
}

// CreateRemote registers a remote server and returns its id
func (a *App) CreateRemote(p remotes.Params) (string, error) {
	id, err := a.Remotes.Create(p)
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"server_id": id,
		"host":      p.Host,
	}).Info("remote server added")

	a.reverify()

	return id, nil
}

// UpdateRemote replaces the fields of a remote server
func (a *App) UpdateRemote(id string, p remotes.Params) error {
	if err := a.Remotes.Update(id, p); err != nil {
		return err
	}

	a.reverify()

	return nil
}

// DeleteRemote removes a remote server and drops its status
func (a *App) DeleteRemote(id string) error {
	if err := a.Remotes.Delete(id); err != nil {
		return err
	}

	a.Verifier.Forget(id)

	return nil
}
