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
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var editTypeFlag string
var editHostFlag string
var editPortFlag int
var editDBFlag string
var editUserFlag string
var editPasswordFlag string

// remoteEdit holds the fields given on the command line. Nil fields are kept.
type remoteEdit struct {
	dbType   *string
	host     *string
	port     *int
	db       *string
	user     *string
	password *string
}

func newEditCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Edit a remote database server",
		Aliases: []string{"e"},
		Args:    cobra.ExactArgs(1),
		RunE:    newEditRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&editTypeFlag, "type", "t", "", "a new database type (mysql or postgresql)")
	f.StringVar(&editHostFlag, "host", "", "a new host name")
	f.IntVar(&editPortFlag, "port", 0, "a new port")
	f.StringVar(&editDBFlag, "db", "", "a new database name")
	f.StringVarP(&editUserFlag, "user", "u", "", "a new user")
	f.StringVarP(&editPasswordFlag, "password", "p", "", "a new password")

	return cmd
}

func stringFlag(f *pflag.FlagSet, name string, v *string) *string {
	if !f.Changed(name) {
		return nil
	}

	return v
}

// newRemoteEdit collects the flags that were set
func newRemoteEdit(f *pflag.FlagSet) remoteEdit {
	e := remoteEdit{
		dbType:   stringFlag(f, "type", &editTypeFlag),
		host:     stringFlag(f, "host", &editHostFlag),
		db:       stringFlag(f, "db", &editDBFlag),
		user:     stringFlag(f, "user", &editUserFlag),
		password: stringFlag(f, "password", &editPasswordFlag),
	}
	if f.Changed("port") {
		e.port = &editPortFlag
	}

	return e
}

func (e remoteEdit) empty() bool {
	return e.dbType == nil && e.host == nil && e.port == nil && e.db == nil && e.user == nil && e.password == nil
}

// apply overlays the edit onto p. Changing the type moves a server on the
// default port of the old type to the default port of the new one.
func (e remoteEdit) apply(p remotes.Params) remotes.Params {
	if e.dbType != nil && *e.dbType != p.DBType {
		if e.port == nil && p.Port == remotes.DefaultPort(p.DBType) {
			p.Port = remotes.DefaultPort(*e.dbType)
		}
		p.DBType = *e.dbType
	}
	if e.host != nil {
		p.Host = *e.host
	}
	if e.port != nil {
		p.Port = *e.port
	}
	if e.db != nil {
		p.DB = *e.db
	}
	if e.user != nil {
		p.User = *e.user
	}
	if e.password != nil {
		p.Password = *e.password
	}

	return p
}

func newEditRun(ctx context.ScriptoriumCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		e := newRemoteEdit(cmd.Flags())
		if e.empty() {
			return errors.New("No flags provided. Run 'scriptorium remote edit --help' for the available flags")
		}

		rs, err := editRemote(ctx, args[0], e)
		if err != nil {
			return err
		}

		log.Successf("edited %s\n", output.Address(rs.Server))
		output.RemoteInfo(rs, ctx.Clock.Now())

		refreshServer(ctx)

		return nil
	}
}

// editRemote applies the edit to the remote server and waits for it to be
// checked again
func editRemote(ctx context.ScriptoriumCtx, idPrefix string, e remoteEdit) (app.RemoteStatus, error) {
	cur, err := findRemote(ctx, idPrefix)
	if err != nil {
		return app.RemoteStatus{}, err
	}

	id := cur.Server.ID
	p := e.apply(remotes.FromServer(cur.Server))

	if err := remotes.Validate(p); err != nil {
		return app.RemoteStatus{}, errors.Wrap(err, "invalid remote server")
	}

	dup, err := ctx.App.Remotes.IsDuplicate(p, id)
	if err != nil {
		return app.RemoteStatus{}, errors.Wrap(err, "checking duplicate")
	}
	if dup {
		return app.RemoteStatus{}, remotes.ErrDuplicate
	}

	if err := ctx.App.UpdateRemote(id, p); err != nil {
		return app.RemoteStatus{}, errors.Wrap(err, "updating remote server")
	}

	ctx.App.Verifier.Wait()

	return findRemote(ctx, id)
}
