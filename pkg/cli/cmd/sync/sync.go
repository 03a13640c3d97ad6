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

// Package sync implements the command synchronizing the remote servers
package sync

import (
	stdCtx "context"

	"github.com/dnote/scriptorium/pkg/cli/client"
	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/cli/infra"
	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/dnote/scriptorium/pkg/cli/output"
	"github.com/dnote/scriptorium/pkg/server/autosync"
	"github.com/dnote/scriptorium/pkg/server/notify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * Synchronize every remote server now
  scriptorium sync

  * Synchronize without going through a running server
  scriptorium sync --local`

var localFlag bool

// NewCmd returns a new sync command
func NewCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"sy"},
		Short:   "Synchronize the notes with every remote server",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&localFlag, "local", "l", false, "synchronize in this process even if a server is running")

	return cmd
}

// syncNow runs a synchronization attempt. A running server performs it so
// that its timer and notifications stay in step. Otherwise it runs here.
func syncNow(ctx context.ScriptoriumCtx, local bool) (autosync.Status, error) {
	if !local && client.Health(ctx) {
		log.Debug("synchronizing through the server at %s\n", ctx.Addr)

		st, err := client.Sync(ctx)
		if err != nil {
			if herr, ok := errors.Cause(err).(*client.HTTPError); ok && herr.IsSyncFailure() {
				return st, errors.New(herr.Message)
			}

			return st, errors.Wrap(err, "requesting synchronization")
		}

		return st, nil
	}

	log.Debug("synchronizing in process\n")

	if err := ctx.App.SyncNow(stdCtx.Background()); err != nil {
		return ctx.App.SyncStatus(), err
	}

	return ctx.App.SyncStatus(), nil
}

func newRun(ctx context.ScriptoriumCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		st, err := syncNow(ctx, localFlag)
		if err != nil {
			log.Warnf("%s\n", notify.AutoSyncDisabledNotice)
			return errors.Wrap(err, "synchronizing")
		}

		log.Success("synchronized\n")
		output.SyncStatus(st)

		return nil
	}
}
