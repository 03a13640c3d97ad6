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

package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/dnote/scriptorium/pkg/assert"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/settings"
	"github.com/dnote/scriptorium/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestGetSettings(t *testing.T) {
	a := app.NewTest(t, app.Params{})
	server := MustNewServer(t, a)

	if err := a.Settings.Set("color_scheme", "dark"); err != nil {
		t.Fatal(errors.Wrap(err, "preparing setting"))
	}

	res := testutils.HTTPDo(t, testutils.MakeReq(server.URL, "GET", "/api/settings", ""))
	assert.StatusCodeEquals(t, res, http.StatusOK, "")

	var payload settings.Settings
	testutils.MustDecodeJSON(t, res, &payload)

	assert.DeepEqual(t, payload, settings.Settings{
		ColorScheme:   settings.ColorSchemeDark,
		AutoSync:      false,
		AutoSyncTime:  settings.DefaultAutoSyncTime,
		EditAndView:   false,
		DefaultSyntax: settings.SyntaxMarkdown,
	}, "payload mismatch")
}

func TestUpdateSettings(t *testing.T) {
	testCases := []struct {
		payload         string
		expectedStatus  int
		expectedEnabled bool
		expectedTime    int
	}{
		{
			payload:         `{"auto_sync": true, "auto_sync_time": 15}`,
			expectedStatus:  http.StatusNoContent,
			expectedEnabled: true,
			expectedTime:    15,
		},
		{
			payload:         `{"auto_sync": "false"}`,
			expectedStatus:  http.StatusNoContent,
			expectedEnabled: false,
			expectedTime:    settings.DefaultAutoSyncTime,
		},
		{
			payload:         `{"auto_sync": true, "auto_sync_time": -1}`,
			expectedStatus:  http.StatusBadRequest,
			expectedEnabled: false,
			expectedTime:    settings.DefaultAutoSyncTime,
		},
		{
			payload:         `{"theme": "dark"}`,
			expectedStatus:  http.StatusBadRequest,
			expectedEnabled: false,
			expectedTime:    settings.DefaultAutoSyncTime,
		},
		{
			payload:         `not json`,
			expectedStatus:  http.StatusBadRequest,
			expectedEnabled: false,
			expectedTime:    settings.DefaultAutoSyncTime,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			a := app.NewTest(t, app.Params{})
			server := MustNewServer(t, a)

			res := testutils.HTTPDo(t, makeJSONReq(server.URL, "PATCH", "/api/settings", tc.payload))
			assert.StatusCodeEquals(t, res, tc.expectedStatus, "")

			s, err := a.Settings.Load()
			if err != nil {
				t.Fatal(errors.Wrap(err, "loading settings"))
			}
			assert.Equal(t, s.AutoSync, tc.expectedEnabled, "auto_sync mismatch")
			assert.Equal(t, s.AutoSyncTime, tc.expectedTime, "auto_sync_time mismatch")
			assert.Equal(t, a.SyncStatus().Enabled, tc.expectedEnabled, "scheduler mismatch")
		})
	}
}

func TestUpdateSettings_form(t *testing.T) {
	a := app.NewTest(t, app.Params{})
	server := MustNewServer(t, a)

	form := url.Values{}
	form.Set("default_syntax", "html")
	form.Set("edit_and_view", "true")

	res := testutils.HTTPDo(t, testutils.MakeFormReq(server.URL, "PATCH", "/api/settings", form))
	assert.StatusCodeEquals(t, res, http.StatusNoContent, "")

	s, err := a.Settings.Load()
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading settings"))
	}
	assert.Equal(t, s.DefaultSyntax, settings.SyntaxHTML, "default_syntax mismatch")
	assert.Equal(t, s.EditAndView, true, "edit_and_view mismatch")
}
