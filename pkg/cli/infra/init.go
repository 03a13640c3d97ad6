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

// Package infra provides operations and definitions for the
// local infrastructure for scriptorium
package infra

import (
	stdCtx "context"
	"fmt"
	"os"
	"time"

	"github.com/dnote/scriptorium/pkg/cli/client"
	"github.com/dnote/scriptorium/pkg/cli/config"
	"github.com/dnote/scriptorium/pkg/cli/consts"
	"github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/dnote/scriptorium/pkg/cli/utils"
	"github.com/dnote/scriptorium/pkg/clock"
	"github.com/dnote/scriptorium/pkg/dirs"
	"github.com/dnote/scriptorium/pkg/server/app"
	serverConfig "github.com/dnote/scriptorium/pkg/server/config"
	"github.com/dnote/scriptorium/pkg/server/database"
	serverLog "github.com/dnote/scriptorium/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunEFunc is a function type of scriptorium commands
type RunEFunc func(*cobra.Command, []string) error

// getDBPath picks the database file in order of the flag, the environment
// and the data directory
func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	if p := os.Getenv(consts.DBPathEnvName); p != "" {
		return p
	}

	return config.DefaultDBPath(paths)
}

// Init initializes the scriptorium environment and returns a new context
func Init(versionTag, customDBPath string) (*context.ScriptoriumCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	ctx := context.ScriptoriumCtx{
		Paths:   paths,
		Version: versionTag,
		DBPath:  getDBPath(paths, customDBPath),
	}

	if err := initFiles(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing files")
	}

	ctx, err := setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: db=%s addr=%s\n", ctx.DBPath, ctx.Addr)

	return &ctx, nil
}

// closeTimeout bounds how long Close waits for an attempt in flight
const closeTimeout = 10 * time.Second

// Close writes pending settings and releases the database
func Close(ctx *context.ScriptoriumCtx) {
	if ctx.App == nil {
		return
	}

	c, cancel := stdCtx.WithTimeout(stdCtx.Background(), closeTimeout)
	defer cancel()

	if err := ctx.App.Close(c); err != nil {
		log.Debug("closing app: %s\n", err.Error())
	}
	database.Close(ctx.App.DB)
}

// setupCtx reads the config file and wires the app against the local database
func setupCtx(ctx context.ScriptoriumCtx) (context.ScriptoriumCtx, error) {
	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	cfg, err := serverConfig.New(cf.ServerParams(ctx.DBPath))
	if err != nil {
		return ctx, errors.Wrap(err, "validating config")
	}
	// commands exit right away so settings are written without delay
	cfg.DebounceDelay = 0

	serverLog.SetLevel(cfg.LogLevel)

	db, err := database.Init(cfg.DBPath, cfg.LogLevel)
	if err != nil {
		return ctx, errors.Wrap(err, "initializing database")
	}

	clk := clock.New()
	a, err := app.New(app.Params{
		DB:     db,
		Clock:  clk,
		Config: cfg,
		Relays: app.Relays(cfg),
		// the periodic timer belongs to the server
		TickerFactory: app.NopTickerFactory,
	})
	if err != nil {
		database.Close(db)
		return ctx, errors.Wrap(err, "initializing app")
	}

	if err := a.Scheduler.Reload(); err != nil {
		database.Close(db)
		return ctx, errors.Wrap(err, "loading auto-sync settings")
	}

	ctx.Addr = cfg.Addr
	ctx.APIEndpoint = fmt.Sprintf("http://%s", cfg.Addr)
	ctx.LogLevel = cfg.LogLevel
	ctx.App = a
	ctx.Clock = clk
	ctx.HTTPClient = client.NewRateLimitedHTTPClient()

	return ctx, nil
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.ScriptoriumCtx) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	if err := config.Write(ctx, config.Default()); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// initFiles creates, if necessary, the scriptorium directories and files inside
func initFiles(ctx context.ScriptoriumCtx) error {
	if err := context.InitDirs(ctx.Paths); err != nil {
		return errors.Wrap(err, "creating the scriptorium dir")
	}
	if err := initConfigFile(ctx); err != nil {
		return errors.Wrap(err, "generating the config file")
	}

	return nil
}
