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

package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dnote/scriptorium/pkg/assert"
	"github.com/pkg/errors"
)

func TestLevels(t *testing.T) {
	defer SetLevel(LevelInfo)

	testCases := []struct {
		current  string
		level    string
		expected bool
	}{
		{LevelDebug, LevelDebug, true},
		{LevelDebug, LevelError, true},
		{LevelInfo, LevelDebug, false},
		{LevelInfo, LevelWarn, true},
		{LevelWarn, LevelInfo, false},
		{LevelWarn, LevelWarn, true},
		{LevelError, LevelWarn, false},
		{LevelError, LevelError, true},
		// unknown levels rank as info
		{"bogus", LevelInfo, true},
		{"bogus", LevelDebug, false},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			SetLevel(tc.current)
			assert.Equal(t, enabled(tc.level), tc.expected, "enabled mismatch")
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.Equal(t, ValidLevel(LevelDebug), true, "debug mismatch")
	assert.Equal(t, ValidLevel(LevelError), true, "error mismatch")
	assert.Equal(t, ValidLevel("verbose"), false, "verbose mismatch")
	assert.Equal(t, ValidLevel(""), false, "empty mismatch")
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)
	defer SetLevel(LevelInfo)

	SetLevel(LevelInfo)
	WithFields(Fields{
		"server_id": "a1",
		"error":     errors.New("connection refused"),
		"interval":  5 * time.Second,
	}).Warn("Verification failed.")
	Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equalf(t, len(lines), 1, "line count mismatch")

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatal(errors.Wrap(err, "decoding log line"))
	}

	assert.Equal(t, got[keyLevel], LevelWarn, "level mismatch")
	assert.Equal(t, got[keyMessage], "Verification failed.", "message mismatch")
	assert.Equal(t, got["server_id"], "a1", "field mismatch")
	assert.Equal(t, got["error"], "connection refused", "error field mismatch")
	assert.Equal(t, got["interval"], "5s", "duration field mismatch")
}

func TestErrorWrap(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	ErrorWrap(errors.New("disk full"), "persisting setting")

	var got map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatal(errors.Wrap(err, "decoding log line"))
	}

	assert.Equal(t, got[keyLevel], LevelError, "level mismatch")
	assert.Equal(t, got[keyMessage], "persisting setting: disk full", "message mismatch")
}

func TestRedact(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{
			input:    "opening notes:s3cret@tcp(localhost:3306)/notes: connection refused",
			expected: "opening notes:*****@tcp(localhost:3306)/notes: connection refused",
		},
		{
			input:    "postgres://notes:s3cret@db:5432/notes",
			expected: "postgres://notes:*****@db:5432/notes",
		},
		{
			input:    "host=db user=notes password=s3cret dbname=notes",
			expected: "host=db user=notes password=***** dbname=notes",
		},
		{
			input:    "connecting to mysql@localhost:3306/notes",
			expected: "connecting to mysql@localhost:3306/notes",
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			assert.Equal(t, Redact(tc.input), tc.expected, "redacted mismatch")
		})
	}
}

func TestWrite_masksSecrets(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	WithFields(Fields{"host": "db"}).
		With("password", "s3cret").
		With("error", errors.New("dial postgres://notes:s3cret@db/notes")).
		Error("Synchronization failed.")

	out := buf.String()
	assert.Equal(t, strings.Contains(out, "s3cret"), false, "password leaked")
	assert.Equal(t, strings.Contains(out, `"password":"*****"`), true, "password field should be masked")
	assert.Equal(t, strings.Contains(out, `"host":"db"`), true, "other fields should be kept")
}
