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
	"testing"
	"time"

	"github.com/dnote/scriptorium/pkg/assert"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/dnote/scriptorium/pkg/server/verify"
)

func TestPresentRemote(t *testing.T) {
	checkedAt := time.Date(2025, 1, 15, 10, 30, 45, 123456789, time.UTC)
	checkedAtTS := FormatTS(checkedAt)

	server := database.RemoteServer{
		ID:       "a1b2c3d4-e5f6-4789-a012-3456789abcde",
		DBType:   database.DBTypeMySQL,
		Host:     "db1.example.com",
		Port:     3306,
		DB:       "notes",
		User:     "mysql",
		Password: "secret",
	}

	testCases := []struct {
		name     string
		input    app.RemoteStatus
		expected Remote
	}{
		{
			name: "verified",
			input: app.RemoteStatus{
				Server: server,
				Status: verify.Status{ServerID: server.ID, State: verify.StateVerified, CheckedAt: checkedAt},
			},
			expected: Remote{
				ID:       server.ID,
				DBType:   database.DBTypeMySQL,
				Host:     "db1.example.com",
				Port:     3306,
				DB:       "notes",
				User:     "mysql",
				Password: PasswordMask,
				Status: RemoteStatus{
					State:     verify.StateVerified,
					CheckedAt: &checkedAtTS,
				},
			},
		},
		{
			name: "failed",
			input: app.RemoteStatus{
				Server: server,
				Status: verify.Status{ServerID: server.ID, State: verify.StateFailed, Message: "connection refused", CheckedAt: checkedAt},
			},
			expected: Remote{
				ID:       server.ID,
				DBType:   database.DBTypeMySQL,
				Host:     "db1.example.com",
				Port:     3306,
				DB:       "notes",
				User:     "mysql",
				Password: PasswordMask,
				Status: RemoteStatus{
					State:     verify.StateFailed,
					Message:   "connection refused",
					CheckedAt: &checkedAtTS,
				},
			},
		},
		{
			name: "pending without password",
			input: app.RemoteStatus{
				Server: database.RemoteServer{ID: "x", DBType: database.DBTypePostgreSQL, Host: "db2", Port: 5432, DB: "notes", User: "postgres"},
				Status: verify.Status{ServerID: "x", State: verify.StatePending},
			},
			expected: Remote{
				ID:     "x",
				DBType: database.DBTypePostgreSQL,
				Host:   "db2",
				Port:   5432,
				DB:     "notes",
				User:   "postgres",
				Status: RemoteStatus{
					State: verify.StatePending,
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := PresentRemote(tc.input)

			assert.DeepEqual(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestPresentRemotes(t *testing.T) {
	got := PresentRemotes(nil)
	assert.Equal(t, len(got), 0, "length mismatch")
	assert.Equal(t, got != nil, true, "should not be nil")
}

func TestPresentParams(t *testing.T) {
	p := remotes.DefaultParams()
	p.Password = "hunter2"

	got := PresentParams(p)
	assert.Equal(t, got.Password, PasswordMask, "password mismatch")
	assert.Equal(t, got.Host, p.Host, "host mismatch")
}
