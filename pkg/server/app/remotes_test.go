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
	"context"
	"sync"
	"testing"

	"github.com/dnote/scriptorium/pkg/assert"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/dnote/scriptorium/pkg/server/testutils"
	"github.com/dnote/scriptorium/pkg/server/verify"
	"github.com/pkg/errors"
)

// switchChecker returns whatever result was set last
type switchChecker struct {
	mu  sync.Mutex
	err error
}

func (c *switchChecker) set(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err = err
}

func (c *switchChecker) Check(ctx context.Context, s database.RemoteServer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}

func newRemoteParams(host string) remotes.Params {
	return remotes.Params{
		DBType:   database.DBTypePostgreSQL,
		Host:     host,
		Port:     5432,
		DB:       "notes",
		User:     "postgres",
		Password: "pass1234",
	}
}

func TestListRemotes(t *testing.T) {
	t.Run("never checked", func(t *testing.T) {
		a := NewTest(t, Params{})
		s := testutils.SetupRemoteServer(t, a.DB, "db1", 3306, "notes")

		result, err := a.ListRemotes()
		if err != nil {
			t.Fatal(errors.Wrap(err, "listing"))
		}

		assert.Equal(t, len(result), 1, "count mismatch")
		assert.Equal(t, result[0].Server.ID, s.ID, "id mismatch")
		assert.Equal(t, result[0].Status.ServerID, s.ID, "status id mismatch")
		assert.Equal(t, result[0].Status.State, verify.StatePending, "state mismatch")
	})

	t.Run("failed check", func(t *testing.T) {
		a := NewTest(t, Params{Checker: StaticChecker{Err: errors.New("connection refused")}})

		id, err := a.CreateRemote(newRemoteParams("db2"))
		if err != nil {
			t.Fatal(errors.Wrap(err, "creating"))
		}
		a.Verifier.Wait()

		result, err := a.ListRemotes()
		if err != nil {
			t.Fatal(errors.Wrap(err, "listing"))
		}

		assert.Equal(t, len(result), 1, "count mismatch")
		assert.Equal(t, result[0].Server.ID, id, "id mismatch")
		assert.Equal(t, result[0].Status.State, verify.StateFailed, "state mismatch")
		assert.Equal(t, result[0].Status.Message, "connection refused", "message mismatch")
	})
}

func TestCreateRemote(t *testing.T) {
	a := NewTest(t, Params{})

	id, err := a.CreateRemote(newRemoteParams("db1"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating"))
	}
	a.Verifier.Wait()

	st, ok := a.Verifier.Status(id)
	assert.Equal(t, ok, true, "status missing")
	assert.Equal(t, st.State, verify.StateVerified, "state mismatch")

	_, err = a.CreateRemote(newRemoteParams("db1"))
	assert.Equal(t, errors.Cause(err), remotes.ErrDuplicate, "duplicate error mismatch")

	p := newRemoteParams("db3")
	p.Port = 0
	_, err = a.CreateRemote(p)
	assert.Equal(t, remotes.IsValidationError(err), true, "validation error mismatch")

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.RemoteServer{}).Count(&count), "counting remote servers")
	assert.Equal(t, count, int64(1), "count mismatch")
}

func TestUpdateRemote(t *testing.T) {
	checker := &switchChecker{}
	a := NewTest(t, Params{Checker: checker})

	id, err := a.CreateRemote(newRemoteParams("db1"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating"))
	}
	a.Verifier.Wait()

	checker.set(errors.New("password authentication failed"))

	p := newRemoteParams("db1")
	p.Password = "wrong"
	if err := a.UpdateRemote(id, p); err != nil {
		t.Fatal(errors.Wrap(err, "updating"))
	}
	a.Verifier.Wait()

	st, _ := a.Verifier.Status(id)
	assert.Equal(t, st.State, verify.StateFailed, "state mismatch")

	server, err := a.Remotes.Get(id)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting"))
	}
	assert.Equal(t, server.Password, "wrong", "password mismatch")
}

func TestDeleteRemote(t *testing.T) {
	a := NewTest(t, Params{})

	id, err := a.CreateRemote(newRemoteParams("db1"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating"))
	}
	a.Verifier.Wait()

	if err := a.DeleteRemote(id); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	_, ok := a.Verifier.Status(id)
	assert.Equal(t, ok, false, "status should be forgotten")

	result, err := a.ListRemotes()
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}
	assert.Equal(t, len(result), 0, "count mismatch")
}
