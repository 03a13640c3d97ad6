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

package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dnote/scriptorium/pkg/assert"
	"github.com/dnote/scriptorium/pkg/cli/consts"
	"github.com/dnote/scriptorium/pkg/cli/testutils"
	"github.com/dnote/scriptorium/pkg/cli/utils"
	"github.com/dnote/scriptorium/pkg/dirs"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/pkg/errors"
)

var binaryName = "test-scriptorium"

// setupTestEnv creates a unique test directory for parallel test execution
func setupTestEnv(t *testing.T) (string, testutils.RunCmdOptions) {
	testDir := t.TempDir()
	opts := testutils.RunCmdOptions{
		Env: []string{
			fmt.Sprintf("XDG_CONFIG_HOME=%s", testDir),
			fmt.Sprintf("XDG_DATA_HOME=%s", testDir),
			fmt.Sprintf("XDG_CACHE_HOME=%s", testDir),
			fmt.Sprintf("HOME=%s", testDir),
		},
	}
	return testDir, opts
}

func dbPathOf(testDir string) string {
	return filepath.Join(testDir, dirs.AppDirName, "scriptorium.db")
}

func TestMain(m *testing.M) {
	if err := exec.Command("go", "build", "-o", binaryName).Run(); err != nil {
		log.Print(errors.Wrap(err, "building a binary").Error())
		os.Exit(1)
	}

	code := m.Run()
	os.Remove(binaryName)
	os.Exit(code)
}

func TestParseDBPath(t *testing.T) {
	testCases := []struct {
		args     []string
		expected string
	}{
		{
			args:     []string{"--dbPath", "/tmp/a.db", "remote", "ls"},
			expected: "/tmp/a.db",
		},
		{
			args:     []string{"remote", "ls", "--dbPath=/tmp/b.db"},
			expected: "/tmp/b.db",
		},
		{
			args:     []string{"remote", "ls"},
			expected: "",
		},
		{
			args:     []string{"--dbPath"},
			expected: "",
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			assert.Equal(t, parseDBPath(tc.args), tc.expected, "result mismatch")
		})
	}
}

func TestInit(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	testutils.RunCmd(t, opts, binaryName, "settings")

	ok, err := utils.FileExists(filepath.Join(testDir, dirs.AppDirName, consts.ConfigFilename))
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking if config exists"))
	}
	assert.Equal(t, ok, true, "config file was not initialized")

	db := testutils.MustOpenDatabase(t, dbPathOf(testDir))

	for _, table := range []string{"remote_servers", "settings", "books", "documents", database.MigrationTableName} {
		var count int64
		if err := db.Raw("SELECT count(*) FROM sqlite_master WHERE type = ? AND name = ?", "table", table).Scan(&count).Error; err != nil {
			t.Fatal(errors.Wrap(err, "counting tables"))
		}
		assert.Equal(t, count, int64(1), table+" table count mismatch")
	}
}

func TestVersion(t *testing.T) {
	_, opts := setupTestEnv(t)

	out := testutils.RunCmd(t, opts, binaryName, "version")
	assert.Equal(t, strings.HasPrefix(out, "scriptorium "), true, "output mismatch")
}

func TestDBPathFlag(t *testing.T) {
	testDir, opts := setupTestEnv(t)
	dbPath := filepath.Join(testDir, "custom", "my.db")

	testutils.RunCmd(t, opts, binaryName, "settings", "auto_sync_time", "42", "--dbPath", dbPath)

	db := testutils.MustOpenDatabase(t, dbPath)
	var s database.Setting
	if err := db.Where("key = ?", database.SettingAutoSyncTime).First(&s).Error; err != nil {
		t.Fatal(errors.Wrap(err, "finding setting"))
	}
	assert.Equal(t, s.Value, "42", "value mismatch")
}

func TestSettings(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	out := testutils.RunCmd(t, opts, binaryName, "settings", "auto_sync", "yes")
	assert.Equal(t, strings.Contains(out, "auto_sync = true"), true, "output mismatch")

	out = testutils.RunCmd(t, opts, binaryName, "settings", "auto_sync")
	assert.Equal(t, strings.Contains(out, "auto_sync = true"), true, "output mismatch")

	out = testutils.RunCmdErr(t, opts, binaryName, "settings", "auto_sync_time", "0")
	assert.Equal(t, strings.Contains(out, "invalid setting value"), true, "output mismatch")

	out = testutils.RunCmdErr(t, opts, binaryName, "settings", "theme", "dark")
	assert.Equal(t, strings.Contains(out, "unknown setting"), true, "output mismatch")

	db := testutils.MustOpenDatabase(t, dbPathOf(testDir))
	var count int64
	if err := db.Model(&database.Setting{}).Where("key = ?", database.SettingAutoSyncTime).Count(&count).Error; err != nil {
		t.Fatal(errors.Wrap(err, "counting settings"))
	}
	assert.Equal(t, count, int64(0), "invalid value should not be stored")
}

// countRemotes returns the number of remote servers in the database
func countRemotes(t *testing.T, testDir string) int64 {
	db := testutils.MustOpenDatabase(t, dbPathOf(testDir))

	var count int64
	if err := db.Model(&database.RemoteServer{}).Count(&count).Error; err != nil {
		t.Fatal(errors.Wrap(err, "counting remote servers"))
	}

	return count
}

// nothing listens on this port so checks fail fast
const unreachableHost = "127.0.0.1"
const unreachablePort = "1"

func TestRemote(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	out := testutils.RunCmd(t, opts, binaryName, "remote", "add",
		"--type", "postgresql", "--host", unreachableHost, "--port", unreachablePort,
		"--db", "notes", "--user", "alice", "--password", "pass1234")
	assert.Equal(t, strings.Contains(out, "added alice@127.0.0.1:1/notes"), true, "add output mismatch")
	assert.Equal(t, strings.Contains(out, "status: failed"), true, "status should be failed")
	assert.Equal(t, countRemotes(t, testDir), int64(1), "count mismatch")

	out = testutils.RunCmdErr(t, opts, binaryName, "remote", "add",
		"--type", "postgresql", "--host", unreachableHost, "--port", unreachablePort,
		"--db", "notes", "--user", "bob", "--password", "")
	assert.Equal(t, strings.Contains(out, "already exists"), true, "duplicate output mismatch")
	assert.Equal(t, countRemotes(t, testDir), int64(1), "duplicate should not be added")

	out = testutils.RunCmd(t, opts, binaryName, "remote", "ls")
	assert.Equal(t, strings.Contains(out, "postgresql alice@127.0.0.1:1/notes failed"), true, "ls output mismatch")

	db := testutils.MustOpenDatabase(t, dbPathOf(testDir))
	var s database.RemoteServer
	if err := db.First(&s).Error; err != nil {
		t.Fatal(errors.Wrap(err, "finding remote server"))
	}
	assert.Equal(t, s.Password, "pass1234", "password mismatch")

	out = testutils.RunCmd(t, opts, binaryName, "remote", "edit", s.ID[:8], "--db", "archive")
	assert.Equal(t, strings.Contains(out, "edited alice@127.0.0.1:1/archive"), true, "edit output mismatch")

	testutils.RunCmdErr(t, opts, binaryName, "remote", "edit", s.ID)

	testutils.MustWaitCmd(t, opts, testutils.CancelRemoveRemote, binaryName, "remote", "rm", s.ID)
	assert.Equal(t, countRemotes(t, testDir), int64(1), "remote should not be removed on cancel")

	testutils.MustWaitCmd(t, opts, testutils.ConfirmRemoveRemote, binaryName, "remote", "rm", s.ID)
	assert.Equal(t, countRemotes(t, testDir), int64(0), "remote should be removed")

	testutils.RunCmdErr(t, opts, binaryName, "remote", "rm", s.ID, "--yes")
}

func TestRemoteAdd_promptPassword(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	testutils.MustWaitCmd(t, opts, testutils.EnterPassword("s3cret"), binaryName, "remote", "add",
		"--host", unreachableHost, "--port", unreachablePort, "--db", "notes", "--user", "alice")

	db := testutils.MustOpenDatabase(t, dbPathOf(testDir))
	var s database.RemoteServer
	if err := db.First(&s).Error; err != nil {
		t.Fatal(errors.Wrap(err, "finding remote server"))
	}
	assert.Equal(t, s.DBType, database.DBTypeMySQL, "type mismatch")
	assert.Equal(t, s.Password, "s3cret", "password mismatch")
}

func TestSync(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	testutils.RunCmd(t, opts, binaryName, "settings", "auto_sync", "true")

	out := testutils.RunCmd(t, opts, binaryName, "sync", "--local")
	assert.Equal(t, strings.Contains(out, "synchronized"), true, "output mismatch")

	testutils.RunCmd(t, opts, binaryName, "remote", "add",
		"--host", unreachableHost, "--port", unreachablePort, "--db", "notes", "--user", "alice", "--password", "")

	out = testutils.RunCmdErr(t, opts, binaryName, "sync", "--local")
	assert.Equal(t, strings.Contains(out, "Automatic synchronization has been turned off."), true, "output mismatch")

	db := testutils.MustOpenDatabase(t, dbPathOf(testDir))
	var s database.Setting
	if err := db.Where("key = ?", database.SettingAutoSync).First(&s).Error; err != nil {
		t.Fatal(errors.Wrap(err, "finding setting"))
	}
	assert.Equal(t, s.Value, "false", "auto_sync should be turned off")
}
