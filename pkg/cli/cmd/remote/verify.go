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

func newVerifyCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [id...]",
		Short: "Check that remote database servers accept connections",
		RunE:  newVerifyRun(ctx),
	}

	return cmd
}

func newVerifyRun(ctx context.ScriptoriumCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		list, err := verifyRemotes(ctx, args)
		if err != nil {
			return err
		}

		output.RemoteList(list)

		refreshServer(ctx)

		return nil
	}
}

// verifyRemotes checks the remote servers with the given ids, or all of them
// if none is given, and returns their results
func verifyRemotes(ctx context.ScriptoriumCtx, idPrefixes []string) ([]app.RemoteStatus, error) {
	if len(idPrefixes) == 0 {
		return listRemotes(ctx)
	}

	var ids []string
	for _, prefix := range idPrefixes {
		rs, err := findRemote(ctx, prefix)
		if err != nil {
			return nil, err
		}

		if err := ctx.App.Verifier.Verify(rs.Server.ID); err != nil {
			return nil, errors.Wrap(err, "verifying remote server")
		}
		ids = append(ids, rs.Server.ID)
	}
	ctx.App.Verifier.Wait()

	ret := make([]app.RemoteStatus, 0, len(ids))
	for _, id := range ids {
		rs, err := findRemote(ctx, id)
		if err != nil {
			return nil, err
		}

		ret = append(ret, rs)
	}

	return ret, nil
}
