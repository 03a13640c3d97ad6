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

package cmd

import (
	"testing"

	"github.com/dnote/scriptorium/pkg/assert"
)

func TestSetupFlagSet(t *testing.T) {
	fs := setupFlagSet("start", "scriptorium-server start")

	addr := fs.String("addr", "", "Listen address")
	var urls stringList
	fs.Var(&urls, "notify", "Shoutrrr service URL")

	if err := fs.Parse([]string{"--addr", "127.0.0.1:4000", "--notify", "logger://", "--notify", "generic://example.com"}); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, *addr, "127.0.0.1:4000", "addr mismatch")
	assert.DeepEqual(t, []string(urls), []string{"logger://", "generic://example.com"}, "notify mismatch")
	assert.Equal(t, urls.String(), "logger://,generic://example.com", "string mismatch")
}
