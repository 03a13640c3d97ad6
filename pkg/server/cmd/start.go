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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnote/scriptorium/pkg/server/config"
	"github.com/dnote/scriptorium/pkg/server/daemon"
	"github.com/dnote/scriptorium/pkg/server/log"
)

func startCmd(args []string) {
	fs := setupFlagSet("start", "scriptorium-server start")

	appEnv := fs.String("appEnv", "", "Application environment (env: APP_ENV, default: PRODUCTION)")
	addr := fs.String("addr", "", "Listen address (env: SCRIPTORIUM_ADDR, default: "+config.DefaultAddr+")")
	dbPath := fs.String("dbPath", "", "Path to SQLite database file (env: SCRIPTORIUM_DB_PATH, default: $XDG_DATA_HOME/scriptorium/scriptorium.db)")
	logLevel := fs.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	alertEmail := fs.String("alertEmail", "", "Address notified when synchronization fails (env: SCRIPTORIUM_ALERT_EMAIL)")
	var shoutrrrURLs stringList
	fs.Var(&shoutrrrURLs, "notify", "Shoutrrr service URL notified when synchronization fails, repeatable (env: SCRIPTORIUM_SHOUTRRR_URLS)")

	fs.Parse(args)

	if err := config.LoadEnv(); err != nil {
		log.ErrorWrap(err, "loading environment")
	}

	cfg, err := config.New(config.Params{
		AppEnv:       *appEnv,
		Addr:         *addr,
		DBPath:       *dbPath,
		LogLevel:     *logLevel,
		ShoutrrrURLs: shoutrrrURLs,
		AlertEmail:   *alertEmail,
	})
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	if err := Serve(cfg); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}

// Serve runs the server until the process is interrupted
func Serve(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	return d.Run(ctx)
}
