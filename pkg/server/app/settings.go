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

package app

import (
	"strconv"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/dnote/scriptorium/pkg/server/settings"
)

// UpdateSettings validates every given value and applies them. Turning
// auto-sync on or off takes effect at once. Other keys are written once they
// stop changing.
func (a *App) UpdateSettings(values map[string]string) error {
	normalized := make(map[string]string, len(values))
	for k, v := range values {
		n, err := settings.Normalize(k, v)
		if err != nil {
			return err
		}

		normalized[k] = n
	}

	for _, key := range settings.Keys {
		value, ok := normalized[key]
		if !ok {
			continue
		}

		switch key {
		case database.SettingAutoSync:
			var err error
			if value == "true" {
				err = a.Scheduler.Enable()
			} else {
				err = a.Scheduler.Disable()
			}
			if err != nil {
				return err
			}
		case database.SettingAutoSyncTime:
			seconds, _ := strconv.Atoi(value)
			a.Debouncer.Do(key, func() {
				if err := a.Scheduler.SetInterval(seconds); err != nil {
					log.ErrorWrap(err, "setting auto-sync interval")
				}
			})
		default:
			a.Debouncer.Do(key, func() {
				if err := a.Settings.Set(key, value); err != nil {
					log.ErrorWrap(err, "writing setting")
				}
			})
		}
	}

	return nil
}
