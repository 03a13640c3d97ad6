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
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/dnote/scriptorium/pkg/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testServerBinary string

func init() {
	// Build server binary in temp directory
	testServerBinary = filepath.Join(os.TempDir(), "scriptorium-test-server")
	buildCmd := exec.Command("go", "build", "-o", testServerBinary, "../server")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		panic(fmt.Sprintf("failed to build server: %v\n%s", err, out))
	}
}

// freeAddr returns a loopback address nothing is listening on
func freeAddr(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding a free port: %v", err)
	}
	defer ln.Close()

	return ln.Addr().String()
}

// waitHealthy polls the health endpoint until the server answers
func waitHealthy(t *testing.T, addr string) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}

		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server at %s did not become healthy", addr)
}

func TestServerStart(t *testing.T) {
	tmpDB := filepath.Join(t.TempDir(), "test.db")
	addr := freeAddr(t)

	cmd := exec.Command(testServerBinary, "start")
	cmd.Env = append(os.Environ(),
		"SCRIPTORIUM_DB_PATH="+tmpDB,
		"SCRIPTORIUM_ADDR="+addr,
		"APP_ENV=PRODUCTION",
	)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	stopped := false
	defer func() {
		if !stopped && cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}()

	waitHealthy(t, addr)

	resp, err := http.Get(fmt.Sprintf("http://%s/api/sync", addr))
	if err != nil {
		t.Fatalf("failed to reach sync endpoint: %v", err)
	}
	defer resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusOK, "sync endpoint should return 200")

	var status struct {
		State    string `json:"state"`
		Enabled  bool   `json:"enabled"`
		Interval int    `json:"interval"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decoding sync status: %v", err)
	}
	assert.Equal(t, status.State, "disabled", "state mismatch")
	assert.Equal(t, status.Interval, 5, "interval mismatch")

	// shut down gracefully before checking the database to avoid locks
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("signalling server: %v", err)
	}
	stopped = true
	if err := cmd.Wait(); err != nil {
		t.Fatalf("server did not exit cleanly: %v", err)
	}

	if _, err := os.Stat(tmpDB); os.IsNotExist(err) {
		t.Fatalf("database file was not created at %s", tmpDB)
	}

	db, err := gorm.Open(sqlite.Open(tmpDB), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM schema_migrations").Scan(&count).Error; err != nil {
		t.Fatalf("schema_migrations table not found: %v", err)
	}
	if count == 0 {
		t.Fatal("no migrations were run")
	}

	if err := db.Exec("SELECT * FROM remote_servers LIMIT 1").Error; err != nil {
		t.Fatalf("remote_servers table not found: %v", err)
	}
}

func TestServerVersion(t *testing.T) {
	cmd := exec.Command(testServerBinary, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "scriptorium-server-") {
		t.Errorf("expected version output to contain 'scriptorium-server-', got: %s", outputStr)
	}
}

func TestServerRootCommand(t *testing.T) {
	cmd := exec.Command(testServerBinary)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("server command failed: %v", err)
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Scriptorium server - synchronizes your notes with remote databases"), true, "output should contain description")
	assert.Equal(t, strings.Contains(outputStr, "start: Start the server"), true, "output should contain start command")
	assert.Equal(t, strings.Contains(outputStr, "version: Print the version"), true, "output should contain version command")
}

func TestServerStartHelp(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start", "--help")
	output, _ := cmd.CombinedOutput()

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "scriptorium-server start [flags]"), true, "output should contain usage")
	for _, flag := range []string{"--appEnv", "--addr", "--dbPath", "--logLevel", "--alertEmail", "--notify"} {
		assert.Equal(t, strings.Contains(outputStr, flag), true, "output should contain "+flag+" flag")
	}
}

func TestServerStartInvalidConfig(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start")
	cmd.Env = []string{
		"SCRIPTORIUM_DB_PATH=" + filepath.Join(t.TempDir(), "test.db"),
		"LOG_LEVEL=bogus",
	}

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected command to fail with invalid config")
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Error:"), true, "output should contain error message")
	assert.Equal(t, strings.Contains(outputStr, "Invalid LogLevel"), true, "output should mention invalid LogLevel")
	assert.Equal(t, strings.Contains(outputStr, "scriptorium-server start [flags]"), true, "output should show usage")
	assert.Equal(t, strings.Contains(outputStr, "--logLevel"), true, "output should show flags")
}

func TestServerStartAddrInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}
	defer ln.Close()

	cmd := exec.Command(testServerBinary, "start",
		"--addr", ln.Addr().String(),
		"--dbPath", filepath.Join(t.TempDir(), "test.db"))

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected command to fail with the address in use")
	}

	assert.Equal(t, strings.Contains(string(output), "listening on"), true, "output should mention the address")
}

func TestServerUnknownCommand(t *testing.T) {
	cmd := exec.Command(testServerBinary, "unknown")
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Fatal("expected command to fail with unknown command")
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Unknown command"), true, "output should contain unknown command message")
	assert.Equal(t, strings.Contains(outputStr, "Scriptorium server - synchronizes your notes with remote databases"), true, "output should show help")
}
