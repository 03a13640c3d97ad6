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

package remote

import (
	"fmt"
	"testing"

	"github.com/dnote/scriptorium/pkg/assert"
	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/dnote/scriptorium/pkg/server/verify"
	"github.com/pkg/errors"
)

func newParams(host string) remotes.Params {
	return remotes.Params{
		DBType:   database.DBTypePostgreSQL,
		Host:     host,
		Port:     5432,
		DB:       "notes",
		User:     "alice",
		Password: "pass1234",
	}
}

func mustAdd(t *testing.T, ctx context.ScriptoriumCtx, p remotes.Params) app.RemoteStatus {
	rs, err := addRemote(ctx, p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "adding remote server"))
	}

	return rs
}

func TestAddRemote(t *testing.T) {
	t.Run("verified", func(t *testing.T) {
		ctx := context.InitTestCtx(t, app.Params{})

		rs := mustAdd(t, ctx, newParams("db1"))

		assert.Equal(t, rs.Server.Host, "db1", "host mismatch")
		assert.Equal(t, rs.Status.State, verify.StateVerified, "state mismatch")
	})

	t.Run("failed", func(t *testing.T) {
		checker := app.StaticChecker{Err: errors.New("dial tcp: connection refused")}
		ctx := context.InitTestCtx(t, app.Params{Checker: checker})

		rs := mustAdd(t, ctx, newParams("db1"))

		assert.Equal(t, rs.Status.State, verify.StateFailed, "state mismatch")
		assert.Equal(t, rs.Status.Message, "dial tcp: connection refused", "message mismatch")
	})

	t.Run("duplicate", func(t *testing.T) {
		ctx := context.InitTestCtx(t, app.Params{})
		mustAdd(t, ctx, newParams("db1"))

		p := newParams("db1")
		p.User = "bob"
		_, err := addRemote(ctx, p)
		assert.Equal(t, errors.Cause(err), remotes.ErrDuplicate, "error mismatch")

		list, err := ctx.App.ListRemotes()
		if err != nil {
			t.Fatal(errors.Wrap(err, "listing"))
		}
		assert.Equal(t, len(list), 1, "count mismatch")
	})

	t.Run("invalid", func(t *testing.T) {
		ctx := context.InitTestCtx(t, app.Params{})

		p := newParams("db1")
		p.Port = 70000
		_, err := addRemote(ctx, p)
		assert.Equal(t, errors.Cause(err), remotes.ErrInvalidPort, "error mismatch")
	})
}

func TestFindRemote(t *testing.T) {
	ctx := context.InitTestCtx(t, app.Params{})

	a := mustAdd(t, ctx, newParams("db1"))
	b := mustAdd(t, ctx, newParams("db2"))

	t.Run("full id", func(t *testing.T) {
		got, err := findRemote(ctx, a.Server.ID)
		if err != nil {
			t.Fatal(errors.Wrap(err, "finding"))
		}
		assert.Equal(t, got.Server.ID, a.Server.ID, "id mismatch")
	})

	t.Run("prefix", func(t *testing.T) {
		// the shortest prefix telling the two apart
		n := 1
		for a.Server.ID[:n] == b.Server.ID[:n] {
			n++
		}

		got, err := findRemote(ctx, b.Server.ID[:n])
		if err != nil {
			t.Fatal(errors.Wrap(err, "finding"))
		}
		assert.Equal(t, got.Server.ID, b.Server.ID, "id mismatch")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := findRemote(ctx, "nonexistent")
		assert.Equal(t, errors.Cause(err), database.ErrNotFound, "error mismatch")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := findRemote(ctx, "")
		assert.Equal(t, errors.Cause(err), database.ErrNotFound, "error mismatch")
	})
}

func TestRemoteEditApply(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	base := remotes.Params{
		DBType:   database.DBTypeMySQL,
		Host:     "db1",
		Port:     3306,
		DB:       "notes",
		User:     "alice",
		Password: "secret",
	}

	testCases := []struct {
		edit     remoteEdit
		expected remotes.Params
	}{
		{
			edit:     remoteEdit{},
			expected: base,
		},
		{
			edit: remoteEdit{host: str("db2")},
			expected: remotes.Params{
				DBType: database.DBTypeMySQL, Host: "db2", Port: 3306, DB: "notes", User: "alice", Password: "secret",
			},
		},
		{
			edit: remoteEdit{dbType: str(database.DBTypePostgreSQL)},
			expected: remotes.Params{
				DBType: database.DBTypePostgreSQL, Host: "db1", Port: 5432, DB: "notes", User: "alice", Password: "secret",
			},
		},
		{
			edit: remoteEdit{dbType: str(database.DBTypePostgreSQL), port: num(6000)},
			expected: remotes.Params{
				DBType: database.DBTypePostgreSQL, Host: "db1", Port: 6000, DB: "notes", User: "alice", Password: "secret",
			},
		},
		{
			edit: remoteEdit{password: str("")},
			expected: remotes.Params{
				DBType: database.DBTypeMySQL, Host: "db1", Port: 3306, DB: "notes", User: "alice", Password: "",
			},
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			assert.DeepEqual(t, tc.edit.apply(base), tc.expected, "params mismatch")
		})
	}

	t.Run("custom port is kept on type change", func(t *testing.T) {
		p := base
		p.Port = 3307

		got := remoteEdit{dbType: str(database.DBTypePostgreSQL)}.apply(p)
		assert.Equal(t, got.Port, 3307, "port mismatch")
	})
}

func TestEditRemote(t *testing.T) {
	host := "db3"
	port := 5433

	t.Run("success", func(t *testing.T) {
		ctx := context.InitTestCtx(t, app.Params{})
		rs := mustAdd(t, ctx, newParams("db1"))

		got, err := editRemote(ctx, rs.Server.ID, remoteEdit{host: &host, port: &port})
		if err != nil {
			t.Fatal(errors.Wrap(err, "editing"))
		}

		assert.Equal(t, got.Server.ID, rs.Server.ID, "id mismatch")
		assert.Equal(t, got.Server.Host, "db3", "host mismatch")
		assert.Equal(t, got.Server.Port, 5433, "port mismatch")
		assert.Equal(t, got.Server.Password, "pass1234", "password should be kept")
		assert.Equal(t, got.Status.State, verify.StateVerified, "state mismatch")
	})

	t.Run("duplicate", func(t *testing.T) {
		ctx := context.InitTestCtx(t, app.Params{})
		rs := mustAdd(t, ctx, newParams("db1"))
		mustAdd(t, ctx, newParams("db2"))

		other := "db2"
		_, err := editRemote(ctx, rs.Server.ID, remoteEdit{host: &other})
		assert.Equal(t, errors.Cause(err), remotes.ErrDuplicate, "error mismatch")

		cur, err := ctx.App.Remotes.Get(rs.Server.ID)
		if err != nil {
			t.Fatal(errors.Wrap(err, "getting"))
		}
		assert.Equal(t, cur.Host, "db1", "host should be unchanged")
	})

	t.Run("same descriptor", func(t *testing.T) {
		ctx := context.InitTestCtx(t, app.Params{})
		rs := mustAdd(t, ctx, newParams("db1"))

		same := "db1"
		if _, err := editRemote(ctx, rs.Server.ID, remoteEdit{host: &same}); err != nil {
			t.Fatal(errors.Wrap(err, "editing"))
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctx := context.InitTestCtx(t, app.Params{})

		_, err := editRemote(ctx, "nonexistent", remoteEdit{host: &host})
		assert.Equal(t, errors.Cause(err), database.ErrNotFound, "error mismatch")
	})
}

func TestRm(t *testing.T) {
	ctx := context.InitTestCtx(t, app.Params{})
	rs := mustAdd(t, ctx, newParams("db1"))

	yesFlag = true
	defer func() { yesFlag = false }()

	cmd := newRmCmd(ctx)
	cmd.SetArgs([]string{rs.Server.ID})
	if err := cmd.Execute(); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	list, err := ctx.App.ListRemotes()
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}
	assert.Equal(t, len(list), 0, "count mismatch")

	_, ok := ctx.App.Verifier.Status(rs.Server.ID)
	assert.Equal(t, ok, false, "status should be forgotten")

	cmd = newRmCmd(ctx)
	cmd.SetArgs([]string{rs.Server.ID})
	err = cmd.Execute()
	assert.Equal(t, errors.Cause(err), database.ErrNotFound, "error mismatch")
}

func TestVerifyRemotes(t *testing.T) {
	checker := &switchChecker{}
	ctx := context.InitTestCtx(t, app.Params{Checker: checker})

	a := mustAdd(t, ctx, newParams("db1"))
	b := mustAdd(t, ctx, newParams("db2"))

	checker.set(errors.New("password authentication failed"))

	t.Run("one", func(t *testing.T) {
		got, err := verifyRemotes(ctx, []string{a.Server.ID})
		if err != nil {
			t.Fatal(errors.Wrap(err, "verifying"))
		}

		assert.Equal(t, len(got), 1, "count mismatch")
		assert.Equal(t, got[0].Status.State, verify.StateFailed, "state mismatch")

		st, _ := ctx.App.Verifier.Status(b.Server.ID)
		assert.Equal(t, st.State, verify.StateVerified, "other server should not be checked")
	})

	t.Run("all", func(t *testing.T) {
		got, err := verifyRemotes(ctx, nil)
		if err != nil {
			t.Fatal(errors.Wrap(err, "verifying"))
		}

		assert.Equal(t, len(got), 2, "count mismatch")
		for _, rs := range got {
			assert.Equal(t, rs.Status.State, verify.StateFailed, "state mismatch")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := verifyRemotes(ctx, []string{"nonexistent"})
		assert.Equal(t, errors.Cause(err), database.ErrNotFound, "error mismatch")
	})
}
