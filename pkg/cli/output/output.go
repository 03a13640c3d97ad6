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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"time"

	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/autosync"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/verify"
)

// Address formats the location of a remote server
func Address(s database.RemoteServer) string {
	return fmt.Sprintf("%s@%s:%d/%s", s.User, s.Host, s.Port, s.DB)
}

func stateText(st verify.Status) string {
	switch st.State {
	case verify.StateVerified:
		return log.ColorGreen.Sprint(st.State)
	case verify.StateFailed:
		return log.ColorRed.Sprint(st.State)
	default:
		return log.ColorYellow.Sprint(st.State)
	}
}

// RemoteInfo prints a remote server with its latest check
func RemoteInfo(rs app.RemoteStatus, now time.Time) {
	log.Infof("id: %s\n", rs.Server.ID)
	log.Infof("type: %s\n", rs.Server.DBType)
	log.Infof("address: %s\n", Address(rs.Server))
	log.Infof("status: %s\n", stateText(rs.Status))
	if !rs.Status.CheckedAt.IsZero() {
		log.Infof("checked: %s\n", relativeTime(now, rs.Status.CheckedAt))
	}
	if rs.Status.Message != "" {
		log.Infof("message: %s\n", rs.Status.Message)
	}
}

// RemoteList prints one line per remote server
func RemoteList(list []app.RemoteStatus) {
	if len(list) == 0 {
		log.Plainf("no remote servers\n")
		return
	}

	for _, rs := range list {
		log.Plainf("%s %s %s %s\n",
			log.ColorGray.Sprint(rs.Server.ID),
			rs.Server.DBType,
			Address(rs.Server),
			stateText(rs.Status),
		)
		if rs.Status.State == verify.StateFailed && rs.Status.Message != "" {
			log.Plainf("    %s\n", log.ColorGray.Sprint(rs.Status.Message))
		}
	}
}

// SyncStatus prints the state of the auto-sync scheduler
func SyncStatus(st autosync.Status) {
	enabled := "off"
	if st.Enabled {
		enabled = "on"
	}

	log.Infof("auto-sync: %s, every %d seconds (%s)\n", enabled, st.Interval, st.State)
}

// Settings prints the given settings in the given key order
func Settings(keys []string, values map[string]string) {
	for _, k := range keys {
		log.Plainf("%s = %s\n", k, values[k])
	}
}
