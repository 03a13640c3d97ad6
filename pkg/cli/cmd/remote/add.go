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
	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/dnote/scriptorium/pkg/cli/output"
	"github.com/dnote/scriptorium/pkg/cli/ui"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var addTypeFlag string
var addHostFlag string
var addPortFlag int
var addDBFlag string
var addUserFlag string
var addPasswordFlag string

func newAddCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a remote database server",
		Aliases: []string{"a"},
		Args:    cobra.NoArgs,
		RunE:    newAddRun(ctx),
	}

	d := remotes.DefaultParams()

	f := cmd.Flags()
	f.StringVarP(&addTypeFlag, "type", "t", d.DBType, "the database type (mysql or postgresql)")
	f.StringVar(&addHostFlag, "host", d.Host, "the host name of the server")
	f.IntVar(&addPortFlag, "port", 0, "the port of the server (defaults to the standard port of the type)")
	f.StringVar(&addDBFlag, "db", d.DB, "the name of the database")
	f.StringVarP(&addUserFlag, "user", "u", d.User, "the user to connect as")
	f.StringVarP(&addPasswordFlag, "password", "p", "", "the password of the user (prompted when omitted)")

	return cmd
}

func newAddRun(ctx context.ScriptoriumCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		p := remotes.Params{
			DBType:   addTypeFlag,
			Host:     addHostFlag,
			Port:     addPortFlag,
			DB:       addDBFlag,
			User:     addUserFlag,
			Password: addPasswordFlag,
		}
		if p.Port == 0 {
			p.Port = remotes.DefaultPort(p.DBType)
		}

		if !cmd.Flags().Changed("password") {
			if err := ui.PromptPassword("password", &p.Password); err != nil {
				return errors.Wrap(err, "getting password")
			}
		}

		rs, err := addRemote(ctx, p)
		if err != nil {
			return err
		}

		log.Successf("added %s\n", output.Address(rs.Server))
		output.RemoteInfo(rs, ctx.Clock.Now())

		refreshServer(ctx)

		return nil
	}
}

// addRemote registers a remote server and waits for its first check
func addRemote(ctx context.ScriptoriumCtx, p remotes.Params) (app.RemoteStatus, error) {
	if err := remotes.Validate(p); err != nil {
		return app.RemoteStatus{}, errors.Wrap(err, "invalid remote server")
	}

	dup, err := ctx.App.Remotes.IsDuplicate(p, "")
	if err != nil {
		return app.RemoteStatus{}, errors.Wrap(err, "checking duplicate")
	}
	if dup {
		return app.RemoteStatus{}, remotes.ErrDuplicate
	}

	id, err := ctx.App.CreateRemote(p)
	if err != nil {
		return app.RemoteStatus{}, errors.Wrap(err, "adding remote server")
	}

	ctx.App.Verifier.Wait()

	return findRemote(ctx, id)
}
