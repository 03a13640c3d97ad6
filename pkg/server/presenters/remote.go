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

package presenters

import (
	"time"

	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/dnote/scriptorium/pkg/server/verify"
)

// PasswordMask replaces stored passwords in responses
const PasswordMask = "*****"

// RemoteStatus is the verification state nested in a Remote
type RemoteStatus struct {
	State     verify.State `json:"state"`
	Message   string       `json:"message"`
	CheckedAt *time.Time   `json:"checked_at"`
}

// Remote is a result of PresentRemote
type Remote struct {
	ID       string       `json:"id"`
	DBType   string       `json:"db_type"`
	Host     string       `json:"host"`
	Port     int          `json:"port"`
	DB       string       `json:"db"`
	User     string       `json:"user"`
	Password string       `json:"password"`
	Status   RemoteStatus `json:"status"`
}

func maskPassword(p string) string {
	if p == "" {
		return ""
	}

	return PasswordMask
}

// PresentRemote presents a remote server with its status
func PresentRemote(r app.RemoteStatus) Remote {
	ret := Remote{
		ID:       r.Server.ID,
		DBType:   r.Server.DBType,
		Host:     r.Server.Host,
		Port:     r.Server.Port,
		DB:       r.Server.DB,
		User:     r.Server.User,
		Password: maskPassword(r.Server.Password),
		Status: RemoteStatus{
			State:   r.Status.State,
			Message: r.Status.Message,
		},
	}

	if !r.Status.CheckedAt.IsZero() {
		ts := FormatTS(r.Status.CheckedAt)
		ret.Status.CheckedAt = &ts
	}

	return ret
}

// PresentRemotes presents remote servers
func PresentRemotes(rs []app.RemoteStatus) []Remote {
	ret := []Remote{}

	for _, r := range rs {
		ret = append(ret, PresentRemote(r))
	}

	return ret
}

// PresentParams presents the fields of a descriptor that is not stored yet
func PresentParams(p remotes.Params) remotes.Params {
	p.Password = maskPassword(p.Password)

	return p
}
