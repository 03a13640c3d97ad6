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

package remote

import (
	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/cli/infra"
	"github.com/dnote/scriptorium/pkg/cli/output"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLsCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Short:   "List remote database servers and check them",
		Aliases: []string{"l", "list"},
		Args:    cobra.NoArgs,
		RunE:    newLsRun(ctx),
	}

	return cmd
}

func newLsRun(ctx context.ScriptoriumCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		list, err := listRemotes(ctx)
		if err != nil {
			return err
		}

		output.RemoteList(list)

		return nil
	}
}

// listRemotes checks every remote server and returns the results
func listRemotes(ctx context.ScriptoriumCtx) ([]app.RemoteStatus, error) {
	if err := ctx.App.Verifier.VerifyAll(); err != nil {
		return nil, errors.Wrap(err, "verifying remote servers")
	}
	ctx.App.Verifier.Wait()

	list, err := ctx.App.ListRemotes()
	if err != nil {
		return nil, errors.Wrap(err, "listing remote servers")
	}

	return list, nil
}
