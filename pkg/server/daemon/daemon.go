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

// Package daemon runs the long-lived process serving the API, the auto-sync
// timer and the verification of remote servers
package daemon

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/dnote/scriptorium/pkg/clock"
	"github.com/dnote/scriptorium/pkg/server/app"
	"github.com/dnote/scriptorium/pkg/server/buildinfo"
	"github.com/dnote/scriptorium/pkg/server/config"
	"github.com/dnote/scriptorium/pkg/server/controllers"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/dnote/scriptorium/pkg/server/watch"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long in-flight requests and synchronization
// attempts are awaited on shutdown
const ShutdownTimeout = 10 * time.Second

// Daemon is a running server
type Daemon struct {
	App *app.App

	config   config.Config
	listener net.Listener
	server   *http.Server
	watcher  *watch.Watcher
}

// New opens the database, wires the app and binds the listen address
func New(cfg config.Config) (*Daemon, error) {
	log.SetLevel(cfg.LogLevel)

	db, err := database.Init(cfg.DBPath, cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "initializing database")
	}

	a, err := app.New(app.Params{
		DB:     db,
		Clock:  clock.New(),
		Config: cfg,
		Relays: app.Relays(cfg),
	})
	if err != nil {
		database.Close(db)
		return nil, errors.Wrap(err, "initializing app")
	}

	handler, err := controllers.NewHandler(a)
	if err != nil {
		database.Close(db)
		return nil, errors.Wrap(err, "initializing router")
	}

	// the CLI writes settings straight to the database
	w, err := watch.New(cfg.DBPath, watch.DefaultInterval, func() {
		if err := a.Scheduler.Reload(); err != nil {
			log.ErrorWrap(err, "reloading auto-sync settings")
		}
	})
	if err != nil {
		database.Close(db)
		return nil, errors.Wrap(err, "watching database")
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		w.Close()
		database.Close(db)
		return nil, errors.Wrapf(err, "listening on %s", cfg.Addr)
	}

	return &Daemon{
		App:      a,
		config:   cfg,
		listener: ln,
		watcher:  w,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr returns the address the API is served on
func (d *Daemon) Addr() string {
	return d.listener.Addr().String()
}

// Run serves until ctx is done and then shuts everything down
func (d *Daemon) Run(ctx context.Context) error {
	defer database.Close(d.App.DB)

	if err := d.App.Start(); err != nil {
		d.listener.Close()
		return errors.Wrap(err, "starting app")
	}
	d.watcher.Start()

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"addr":    d.Addr(),
		"db_path": d.config.DBPath,
	}).Info("Scriptorium server starting")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := d.server.Serve(d.listener); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "serving")
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		return d.shutdown()
	})

	return g.Wait()
}

func (d *Daemon) shutdown() error {
	log.Info("Scriptorium server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	d.watcher.Close()

	var ret error
	if err := d.server.Shutdown(ctx); err != nil {
		ret = errors.Wrap(err, "shutting down http server")
	}
	if err := d.App.Close(ctx); err != nil && ret == nil {
		ret = errors.Wrap(err, "closing app")
	}

	return ret
}
