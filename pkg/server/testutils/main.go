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

// Package testutils provides utilities used in tests
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/helpers"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// InitMemoryDB creates a migrated in-memory SQLite database private to the test
func InitMemoryDB(t *testing.T) *gorm.DB {
	db := OpenMemoryDB(t)

	if err := database.Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating test database"))
	}

	return db
}

// OpenMemoryDB opens an in-memory SQLite database without running migrations.
// Each call gets a database of its own.
func OpenMemoryDB(t *testing.T) *gorm.DB {
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", MustUUID(t))

	db, err := database.OpenDSN(dbName, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening in-memory database"))
	}
	t.Cleanup(func() { database.Close(db) })

	return db
}

// MustUUID generates a UUID and fails the test on error
func MustUUID(t *testing.T) string {
	uuid, err := helpers.GenUUID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating UUID"))
	}
	return uuid
}

// MustExec fails the test if the given database query has error
func MustExec(t *testing.T, db *gorm.DB, message string) {
	t.Helper()

	if err := db.Error; err != nil {
		t.Fatalf("%s: %s", message, err.Error())
	}
}

// SetupRemoteServer inserts a remote server descriptor and returns it
func SetupRemoteServer(t *testing.T, db *gorm.DB, host string, port int, dbName string) database.RemoteServer {
	s := database.RemoteServer{
		ID:       MustUUID(t),
		DBType:   database.DBTypeMySQL,
		Host:     host,
		Port:     port,
		DB:       dbName,
		User:     "mysql",
		Password: "secret",
	}
	MustExec(t, db.Create(&s), "preparing remote server")

	return s
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	hc := http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	res, err := hc.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// MakeReq makes an HTTP request and returns a response
func MakeReq(endpoint string, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", endpoint, path)

	req, err := http.NewRequest(method, u, strings.NewReader(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// MakeFormReq makes an HTTP request with a form-encoded body
func MakeFormReq(endpoint, method, path string, data url.Values) *http.Request {
	req := MakeReq(endpoint, method, path, data.Encode())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return req
}

// MustDecodeJSON decodes the JSON body of the response into the destination
func MustDecodeJSON(t *testing.T, res *http.Response, dest interface{}) {
	t.Helper()
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		t.Fatal(errors.Wrap(err, "decoding payload"))
	}
}

// WaitFor polls the condition until it holds or the timeout elapses
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("timed out waiting: %s", message)
}
