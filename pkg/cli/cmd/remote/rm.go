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
	"fmt"

	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/cli/infra"
	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/dnote/scriptorium/pkg/cli/output"
	"github.com/dnote/scriptorium/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var yesFlag bool

func newRmCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Short:   "Remove a remote database server",
		Aliases: []string{"remove", "d"},
		Args:    cobra.ExactArgs(1),
		RunE:    newRmRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "assume yes to the prompts and run in non-interactive mode")

	return cmd
}

func newRmRun(ctx context.ScriptoriumCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rs, err := findRemote(ctx, args[0])
		if err != nil {
			return err
		}

		addr := output.Address(rs.Server)

		if !yesFlag {
			ok, err := ui.Confirm(fmt.Sprintf("remove %s?", addr), false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		if err := ctx.App.DeleteRemote(rs.Server.ID); err != nil {
			return errors.Wrap(err, "removing remote server")
		}

		log.Successf("removed %s\n", addr)

		return nil
	}
}
