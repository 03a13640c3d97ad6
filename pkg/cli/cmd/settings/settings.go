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

// Package settings implements the command reading and writing settings
package settings

import (
	"strconv"

	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/cli/infra"
	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/dnote/scriptorium/pkg/cli/output"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/settings"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * Print every setting
  scriptorium settings

  * Print one setting
  scriptorium settings auto_sync_time

  * Turn auto-sync on
  scriptorium settings auto_sync true

  * Synchronize every minute
  scriptorium settings auto_sync_time 60`

// NewCmd returns a new settings command
func NewCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings [key [value]]",
		Short:   "Print or change settings",
		Aliases: []string{"s", "set"},
		Example: example,
		Args:    cobra.MaximumNArgs(2),
		RunE:    newRun(ctx),
	}

	return cmd
}

// values returns the effective value of every setting
func values(st settings.Settings) map[string]string {
	return map[string]string{
		database.SettingColorScheme:   st.ColorScheme,
		database.SettingAutoSync:      strconv.FormatBool(st.AutoSync),
		database.SettingAutoSyncTime:  strconv.Itoa(st.AutoSyncTime),
		database.SettingEditAndView:   strconv.FormatBool(st.EditAndView),
		database.SettingDefaultSyntax: st.DefaultSyntax,
	}
}

// get returns the effective value of the setting
func get(ctx context.ScriptoriumCtx, key string) (string, error) {
	st, err := ctx.App.Settings.Load()
	if err != nil {
		return "", errors.Wrap(err, "loading settings")
	}

	v, ok := values(st)[key]
	if !ok {
		return "", errors.Wrapf(settings.ErrUnknownKey, "'%s'", key)
	}

	return v, nil
}

// set validates and applies the value. Turning auto-sync on or off and
// changing its interval is picked up by a running server.
func set(ctx context.ScriptoriumCtx, key, value string) (string, error) {
	if err := ctx.App.UpdateSettings(map[string]string{key: value}); err != nil {
		return "", err
	}
	ctx.App.Debouncer.Flush()

	return get(ctx, key)
}

func newRun(ctx context.ScriptoriumCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 0:
			st, err := ctx.App.Settings.Load()
			if err != nil {
				return errors.Wrap(err, "loading settings")
			}

			output.Settings(settings.Keys, values(st))
		case 1:
			v, err := get(ctx, args[0])
			if err != nil {
				return err
			}

			output.Settings([]string{args[0]}, map[string]string{args[0]: v})
		default:
			v, err := set(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			log.Successf("%s = %s\n", args[0], v)
		}

		return nil
	}
}
