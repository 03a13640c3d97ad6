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

// Package app holds the process-wide state of the server and the operations
// the API and the CLI perform on it
package app

import (
	"context"

	"github.com/dnote/scriptorium/pkg/clock"
	"github.com/dnote/scriptorium/pkg/server/autosync"
	"github.com/dnote/scriptorium/pkg/server/config"
	"github.com/dnote/scriptorium/pkg/server/mailer"
	"github.com/dnote/scriptorium/pkg/server/notify"
	"github.com/dnote/scriptorium/pkg/server/reconcile"
	"github.com/dnote/scriptorium/pkg/server/remotedb"
	"github.com/dnote/scriptorium/pkg/server/remotes"
	"github.com/dnote/scriptorium/pkg/server/settings"
	"github.com/dnote/scriptorium/pkg/server/verify"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrEmptyDB is an error for missing database connection in the app configuration
	ErrEmptyDB = errors.New("No database connection was provided")
	// ErrEmptyClock is an error for missing clock in the app configuration
	ErrEmptyClock = errors.New("No clock was provided")
	// ErrEmptySettings is an error for a missing settings store
	ErrEmptySettings = errors.New("No settings store was provided")
	// ErrEmptyRemotes is an error for a missing remote server registry
	ErrEmptyRemotes = errors.New("No remote server registry was provided")
	// ErrEmptyVerifier is an error for a missing verifier
	ErrEmptyVerifier = errors.New("No verifier was provided")
	// ErrEmptyScheduler is an error for a missing auto-sync scheduler
	ErrEmptyScheduler = errors.New("No scheduler was provided")
	// ErrEmptyNotifications is an error for a missing notification center
	ErrEmptyNotifications = errors.New("No notification center was provided")
)

// App is an application context
type App struct {
	DB            *gorm.DB
	Clock         clock.Clock
	Config        config.Config
	Settings      *settings.Store
	Remotes       *remotes.Registry
	Verifier      *verify.Verifier
	Scheduler     *autosync.Scheduler
	Notifications *notify.Center
	Debouncer     *settings.Debouncer
}

// Params are the collaborators of a new App. Nil collaborators get their
// production implementation.
type Params struct {
	DB            *gorm.DB
	Clock         clock.Clock
	Config        config.Config
	Checker       verify.Checker
	Synchronizer  reconcile.Synchronizer
	TickerFactory autosync.TickerFactory
	Relays        []notify.Relay
}

// New wires a new App
func New(p Params) (*App, error) {
	if p.DB == nil {
		return nil, ErrEmptyDB
	}
	if p.Clock == nil {
		return nil, ErrEmptyClock
	}

	store := settings.NewStore(p.DB)
	registry := remotes.NewRegistry(p.DB)
	connector := remotedb.NewConnector(store)

	checker := p.Checker
	if checker == nil {
		checker = connector
	}
	synchronizer := p.Synchronizer
	if synchronizer == nil {
		synchronizer = reconcile.New(p.DB, registry, connector)
	}

	center := notify.NewCenter(p.Clock, notify.DefaultTTL)
	for _, r := range p.Relays {
		center.AddRelay(r)
	}

	a := &App{
		DB:            p.DB,
		Clock:         p.Clock,
		Config:        p.Config,
		Settings:      store,
		Remotes:       registry,
		Verifier:      verify.New(registry, checker, p.Clock),
		Scheduler:     autosync.New(store, synchronizer, center, p.TickerFactory),
		Notifications: center,
		Debouncer:     settings.NewDebouncer(p.Config.DebounceDelay),
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

// Relays returns the failure relays the configuration asks for
func Relays(c config.Config) []notify.Relay {
	var ret []notify.Relay

	if len(c.ShoutrrrURLs) > 0 {
		ret = append(ret, notify.NewShoutrrrRelay(c.ShoutrrrURLs, nil))
	}

	if c.AlertEmail != "" {
		b := mailer.NewBackend(c)
		ret = append(ret, notify.NewEmailRelay(b, c.AlertFrom, []string{c.AlertEmail}))
	}

	return ret
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.DB == nil {
		return ErrEmptyDB
	}
	if a.Clock == nil {
		return ErrEmptyClock
	}
	if a.Settings == nil {
		return ErrEmptySettings
	}
	if a.Remotes == nil {
		return ErrEmptyRemotes
	}
	if a.Verifier == nil {
		return ErrEmptyVerifier
	}
	if a.Scheduler == nil {
		return ErrEmptyScheduler
	}
	if a.Notifications == nil {
		return ErrEmptyNotifications
	}

	return nil
}

// Start arms the auto-sync timer from the persisted settings and verifies
// every remote server
func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return errors.Wrap(err, "starting scheduler")
	}

	if err := a.Verifier.VerifyAll(); err != nil {
		return errors.Wrap(err, "verifying remote servers")
	}

	return nil
}

// Close writes pending settings, tears the timer down and cancels the
// outstanding checks
func (a *App) Close(ctx context.Context) error {
	a.Debouncer.Flush()

	err := a.Scheduler.Close(ctx)
	a.Verifier.Close()
	a.Notifications.Wait()

	if err != nil {
		return errors.Wrap(err, "closing scheduler")
	}

	return nil
}
