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

// Package log writes structured JSON logs. Credentials of remote servers
// never reach the output: fields named after secrets are masked and
// connection strings embedded in values lose their passwords.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	// LevelDebug represents debug log level
	LevelDebug = "debug"
	// LevelInfo represents info log level
	LevelInfo = "info"
	// LevelWarn represents warn log level
	LevelWarn = "warn"
	// LevelError represents error log level
	LevelError = "error"

	keyLevel   = "level"
	keyMessage = "msg"
	keyTime    = "ts"

	mask = "*****"
)

// severities orders the levels. Unknown levels rank as info.
var severities = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// secretKeys are field names whose values are always masked
var secretKeys = map[string]bool{
	"password": true,
	"dsn":      true,
}

var (
	// user:password@ in URLs and go-sql-driver DSNs
	credentialsRe = regexp.MustCompile(`([A-Za-z0-9_.\-]+):[^@/\s]*@`)
	// password=... in libpq style DSNs
	keywordRe = regexp.MustCompile(`password=\S*`)
)

// mu guards threshold and output
var mu sync.Mutex

var threshold = severities[LevelInfo]

var output io.Writer = os.Stderr

// Fields represents a set of information to be included in the log
type Fields map[string]interface{}

// Entry represents a log entry
type Entry struct {
	Fields    Fields
	Timestamp time.Time
}

func newEntry(fields Fields) Entry {
	return Entry{
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// WithFields creates a log entry with the given fields
func WithFields(fields Fields) Entry {
	return newEntry(fields)
}

// With returns a copy of the entry with one more field
func (e Entry) With(key string, value interface{}) Entry {
	f := make(Fields, len(e.Fields)+1)
	for k, v := range e.Fields {
		f[k] = v
	}
	f[key] = value

	return Entry{Fields: f, Timestamp: e.Timestamp}
}

func severity(level string) int {
	if s, ok := severities[level]; ok {
		return s
	}

	return severities[LevelInfo]
}

// SetLevel sets the global log level
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	threshold = severity(level)
}

// SetOutput redirects the log output and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()

	prev := output
	output = w

	return prev
}

// ValidLevel reports whether the given level is one of the known levels
func ValidLevel(level string) bool {
	_, ok := severities[level]
	return ok
}

func enabled(level string) bool {
	mu.Lock()
	defer mu.Unlock()

	return severity(level) >= threshold
}

// Redact removes passwords from connection strings in s
func Redact(s string) string {
	s = credentialsRe.ReplaceAllString(s, "$1:"+mask+"@")
	return keywordRe.ReplaceAllString(s, "password="+mask)
}

func fieldValue(key string, v interface{}) interface{} {
	if secretKeys[strings.ToLower(key)] {
		return mask
	}

	switch v := v.(type) {
	case error:
		return Redact(v.Error())
	case string:
		return Redact(v)
	case time.Duration:
		return v.String()
	case fmt.Stringer:
		return Redact(v.String())
	}

	return v
}

func (e Entry) encode(level, msg string) []byte {
	data := make(map[string]interface{}, len(e.Fields)+3)
	for k, v := range e.Fields {
		data[k] = fieldValue(k, v)
	}
	data[keyLevel] = level
	data[keyMessage] = Redact(msg)
	data[keyTime] = e.Timestamp

	b, err := json.Marshal(data)
	if err != nil {
		return []byte(fmt.Sprintf(`{"%s":"%s","%s":"encoding log entry: %s"}`, keyLevel, LevelError, keyMessage, err))
	}

	return b
}

func (e Entry) write(level, msg string) {
	if !enabled(level) {
		return
	}

	line := append(e.encode(level, msg), '\n')

	mu.Lock()
	defer mu.Unlock()

	if _, err := output.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "writing log: %v\n", err)
	}
}

// Debug logs the given entry at a debug level
func (e Entry) Debug(msg string) {
	e.write(LevelDebug, msg)
}

// Info logs the given entry at an info level
func (e Entry) Info(msg string) {
	e.write(LevelInfo, msg)
}

// Warn logs the given entry at a warning level
func (e Entry) Warn(msg string) {
	e.write(LevelWarn, msg)
}

// Error logs the given entry at an error level
func (e Entry) Error(msg string) {
	e.write(LevelError, msg)
}

// ErrorWrap logs the given entry with the error message annotated by the given message
func (e Entry) ErrorWrap(err error, msg string) {
	e.Error(fmt.Sprintf("%s: %v", msg, err))
}

// Debug logs a debug message without additional fields
func Debug(msg string) {
	newEntry(nil).Debug(msg)
}

// Info logs an info message without additional fields
func Info(msg string) {
	newEntry(nil).Info(msg)
}

// Warn logs a warning message without additional fields
func Warn(msg string) {
	newEntry(nil).Warn(msg)
}

// Error logs an error message without additional fields
func Error(msg string) {
	newEntry(nil).Error(msg)
}

// ErrorWrap logs an error message without additional fields. It annotates
// the given error's message with the given message.
func ErrorWrap(err error, msg string) {
	newEntry(nil).ErrorWrap(err, msg)
}
