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

package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dnote/scriptorium/pkg/assert"
	"github.com/dnote/scriptorium/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "scriptorium.db")
	if err := os.WriteFile(dbPath, []byte("a"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "preparing database file"))
	}

	var changes int32
	w, err := New(dbPath, 10*time.Millisecond, func() {
		atomic.AddInt32(&changes, 1)
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating watcher"))
	}
	w.Start()

	// unrelated files are ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing unrelated file"))
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, atomic.LoadInt32(&changes), int32(0), "unrelated file should not be reported")

	if err := os.WriteFile(dbPath+"-wal", []byte("wal"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing wal"))
	}
	testutils.WaitFor(t, 2*time.Second, func() bool {
		return atomic.LoadInt32(&changes) > 0
	}, "change to be reported")

	w.Close()
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "scriptorium.db"), time.Second, func() {})
	assert.NotEqual(t, err, nil, "expected an error")
}
