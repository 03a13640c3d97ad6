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

// Package remote implements the commands managing remote database servers
package remote

import (
	"strings"

	"github.com/dnote/scriptorium/pkg/cli/client"
	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrAmbiguousID is an error for an id prefix matching more than one remote server
var ErrAmbiguousID = errors.New("more than one remote server matches the id")

var example = `
  * Add a remote server
  scriptorium remote add --type postgresql --host db1 --db notes --user alice

  * List remote servers and check them
  scriptorium remote ls

  * Change the port of a remote server
  scriptorium remote edit 3f5a --port 5433

  * Remove a remote server
  scriptorium remote rm 3f5a`

// NewCmd returns a new remote command
func NewCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remote",
		Short:   "Manage remote database servers",
		Aliases: []string{"r"},
		Example: example,
	}

	cmd.AddCommand(newAddCmd(ctx))
	cmd.AddCommand(newLsCmd(ctx))
	cmd.AddCommand(newEditCmd(ctx))
	cmd.AddCommand(newRmCmd(ctx))
	cmd.AddCommand(newVerifyCmd(ctx))

	return cmd
}

// findRemote returns the remote server whose id starts with the given prefix
// along with the result of its latest check
func findRemote(ctx context.ScriptoriumCtx, idPrefix string) (app.RemoteStatus, error) {
	list, err := ctx.App.ListRemotes()
	if err != nil {
		return app.RemoteStatus{}, errors.Wrap(err, "listing remote servers")
	}

	var matches []app.RemoteStatus
	for _, rs := range list {
		if rs.Server.ID == idPrefix {
			return rs, nil
		}
		if idPrefix != "" && strings.HasPrefix(rs.Server.ID, idPrefix) {
			matches = append(matches, rs)
		}
	}

	switch len(matches) {
	case 0:
		return app.RemoteStatus{}, errors.Wrapf(database.ErrNotFound, "remote server %s", idPrefix)
	case 1:
		return matches[0], nil
	default:
		return app.RemoteStatus{}, errors.Wrapf(ErrAmbiguousID, "'%s'", idPrefix)
	}
}

// refreshServer asks a running server to check every remote server again so
// that the statuses it serves reflect a change made here
func refreshServer(ctx context.ScriptoriumCtx) {
	if !client.Health(ctx) {
		return
	}

	if err := client.VerifyAll(ctx); err != nil {
		log.Debug("asking the server to verify: %s\n", err.Error())
	}
}
