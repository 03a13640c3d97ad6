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

package context

import (
	"testing"

	"github.com/dnote/scriptorium/pkg/clock"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/pkg/errors"
)

// getDefaultTestPaths creates default test paths with all paths pointing to a temp directory
func getDefaultTestPaths(t *testing.T) Paths {
	tmpDir := t.TempDir()
	return Paths{
		Home:   tmpDir,
		Cache:  tmpDir,
		Config: tmpDir,
		Data:   tmpDir,
	}
}

// InitTestCtx initializes a test context backed by an in-memory database
// and a temporary directory for all paths. No server is reachable at its
// API endpoint.
func InitTestCtx(t *testing.T, p app.Params) ScriptoriumCtx {
	paths := getDefaultTestPaths(t)

	if err := InitDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	if p.Clock == nil {
		p.Clock = clock.NewMock()
	}
	a := app.NewTest(t, p)

	return ScriptoriumCtx{
		Paths:       paths,
		Version:     "test",
		DBPath:      ":memory:",
		Addr:        "127.0.0.1:1",
		APIEndpoint: "http://127.0.0.1:1",
		LogLevel:    "error",
		App:         a,
		Clock:       p.Clock,
	}
}
