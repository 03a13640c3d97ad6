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

// Package serve implements the command running the server in the foreground
package serve

import (
	"fmt"

	"github.com/dnote/scriptorium/pkg/cli/client"
	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/cli/infra"
	"github.com/dnote/scriptorium/pkg/cli/log"
	servercmd "github.com/dnote/scriptorium/pkg/server/cmd"
	"github.com/dnote/scriptorium/pkg/server/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrAlreadyRunning is an error for a server already answering at the address
var ErrAlreadyRunning = errors.New("a server is already running")

var example = `
  * Run the server with the address from the config file
  scriptorium serve

  * Run the server on another port with verbose logs
  scriptorium serve --addr 127.0.0.1:4000 --logLevel debug`

var addrFlag string
var logLevelFlag string

// NewCmd returns a new serve command
func NewCmd(ctx context.ScriptoriumCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the server in the foreground",
		Long:    "Run the server in the foreground. It serves the API, synchronizes on the auto-sync interval and checks the remote servers.",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&addrFlag, "addr", "", "the listen address (defaults to the value in the config file)")
	f.StringVar(&logLevelFlag, "logLevel", "", "debug, info, warn, or error (env: LOG_LEVEL, default: info)")

	return cmd
}

// serverConfig builds the server configuration from the one the command
// runs with and the given overrides
func serverConfig(ctx context.ScriptoriumCtx, addr, logLevel string) (config.Config, error) {
	base := ctx.App.Config

	if addr == "" {
		addr = base.Addr
	}

	cfg, err := config.New(config.Params{
		AppEnv:       base.AppEnv,
		Addr:         addr,
		DBPath:       ctx.DBPath,
		LogLevel:     logLevel,
		ShoutrrrURLs: base.ShoutrrrURLs,
		AlertEmail:   base.AlertEmail,
	})
	if err != nil {
		return config.Config{}, errors.Wrap(err, "invalid server configuration")
	}

	return cfg, nil
}

func newRun(ctx context.ScriptoriumCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := serverConfig(ctx, addrFlag, logLevelFlag)
		if err != nil {
			return err
		}

		probe := ctx
		probe.APIEndpoint = fmt.Sprintf("http://%s", cfg.Addr)
		if client.Health(probe) {
			return errors.Wrapf(ErrAlreadyRunning, "at %s", cfg.Addr)
		}

		log.Infof("serving on %s\n", cfg.Addr)

		return servercmd.Serve(cfg)
	}
}
