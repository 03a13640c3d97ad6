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

// Package context defines the scriptorium CLI context
package context

import (
	"net/http"

	"github.com/dnote/scriptorium/pkg/clock"
	"github.com/dnote/scriptorium/pkg/server/app"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// ScriptoriumCtx is a context holding the information of the current runtime
type ScriptoriumCtx struct {
	Paths       Paths
	Version     string
	DBPath      string
	Addr        string
	APIEndpoint string
	LogLevel    string
	App         *app.App
	Clock       clock.Clock
	HTTPClient  *http.Client
}
