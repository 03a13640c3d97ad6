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

// Package autosync schedules periodic synchronization with the remote servers
package autosync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/dnote/scriptorium/pkg/server/notify"
	"github.com/dnote/scriptorium/pkg/server/reconcile"
	"github.com/dnote/scriptorium/pkg/server/settings"
	"github.com/pkg/errors"
)

// ErrClosed is returned when synchronizing with a closed scheduler
var ErrClosed = errors.New("scheduler is closed")

// State is the state of the scheduler
type State string

const (
	// StateDisabled means no timer is armed
	StateDisabled State = "disabled"
	// StateIdle means the timer is armed and no attempt is in flight
	StateIdle State = "idle"
	// StateRunning means an attempt is in flight
	StateRunning State = "running"
)

const (
	successTitle   = "Synchronized"
	successMessage = "Your notes are up to date with every remote server."
	failureTitle   = "Synchronization failed"
)

// Settings persists the auto-sync configuration
type Settings interface {
	AutoSync() (settings.AutoSyncConfig, error)
	SetAutoSync(enabled bool) error
	SetAutoSyncTime(seconds int) error
}

// Notifier shows the outcome of an attempt to the user
type Notifier interface {
	Success(title, message string) notify.Notification
	Failure(title, message string) notify.Notification
}

// Status is a snapshot of the scheduler
type Status struct {
	State    State `json:"state"`
	Enabled  bool  `json:"enabled"`
	Interval int   `json:"interval"`
}

// Scheduler owns the auto-sync timer. There is at most one timer and it is
// armed exactly when auto-sync is enabled. Attempts never overlap.
type Scheduler struct {
	settings  Settings
	sync      reconcile.Synchronizer
	notifier  Notifier
	newTicker TickerFactory

	mu         sync.Mutex
	enabled    bool
	interval   int
	ticker     Ticker
	generation uint64
	running    bool
	closed     bool

	// sem is held by the attempt in flight
	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a new scheduler. A nil ticker factory uses cron.
func New(s Settings, sync reconcile.Synchronizer, n Notifier, tf TickerFactory) *Scheduler {
	if tf == nil {
		tf = NewCronTicker
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		settings:  s,
		sync:      sync,
		notifier:  n,
		newTicker: tf,
		interval:  settings.DefaultAutoSyncTime,
		sem:       make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start arms the timer according to the persisted settings
func (s *Scheduler) Start() error {
	return s.Reload()
}

// Reload reads the persisted settings and brings the timer in line with them
func (s *Scheduler) Reload() error {
	conf, err := s.settings.AutoSync()
	if err != nil {
		return errors.Wrap(err, "reading auto-sync settings")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(conf.Enabled, conf.IntervalSeconds)

	return nil
}

// Enable persists and applies auto-sync being on
func (s *Scheduler) Enable() error {
	if err := s.settings.SetAutoSync(true); err != nil {
		return errors.Wrap(err, "enabling auto-sync")
	}

	return s.Reload()
}

// Disable persists and applies auto-sync being off. An attempt in flight is
// let finish.
func (s *Scheduler) Disable() error {
	if err := s.settings.SetAutoSync(false); err != nil {
		return errors.Wrap(err, "disabling auto-sync")
	}

	return s.Reload()
}

// SetInterval persists and applies the interval in seconds
func (s *Scheduler) SetInterval(seconds int) error {
	if err := s.settings.SetAutoSyncTime(seconds); err != nil {
		return errors.Wrap(err, "setting auto-sync interval")
	}

	return s.Reload()
}

// apply diffs the desired configuration against the armed timer and
// recreates the timer only if enablement or the interval changed. The caller
// must hold the lock.
func (s *Scheduler) apply(enabled bool, interval int) {
	if s.closed {
		enabled = false
	}

	if enabled == s.enabled && (!enabled || interval == s.interval) {
		s.interval = interval
		return
	}

	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.generation++
	s.enabled = enabled
	s.interval = interval

	if enabled {
		gen := s.generation
		s.ticker = s.newTicker(time.Duration(interval)*time.Second, func() {
			s.tick(gen)
		})
	}

	log.WithFields(log.Fields{
		"enabled":  enabled,
		"interval": interval,
	}).Info("auto-sync timer updated")
}

// begin registers an attempt unless the scheduler is closed
func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.wg.Add(1)

	return true
}

func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed && gen == s.generation
}

func (s *Scheduler) tick(gen uint64) {
	if !s.current(gen) {
		return
	}

	select {
	case s.sem <- struct{}{}:
	default:
		log.Debug("skipping auto-sync tick while an attempt is in flight")
		return
	}
	defer func() { <-s.sem }()

	// the timer may have been replaced while waiting
	if !s.current(gen) || !s.begin() {
		return
	}
	defer s.wg.Done()

	s.attempt(s.ctx)
}

// SynchronizeNow runs an attempt right away. It waits for an attempt in flight
// to finish first. A failure turns auto-sync off like a periodic one.
func (s *Scheduler) SynchronizeNow(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	if !s.begin() {
		return ErrClosed
	}
	defer s.wg.Done()

	return s.attempt(ctx)
}

func (s *Scheduler) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = running
}

func (s *Scheduler) attempt(ctx context.Context) error {
	s.setRunning(true)
	start := time.Now()
	err := s.sync.Synchronize(ctx)
	s.setRunning(false)

	fields := log.Fields{"duration": time.Since(start)}

	if err != nil {
		log.WithFields(fields).ErrorWrap(err, "synchronizing")

		// an attempt cut short by shutdown or by its caller keeps the
		// persisted setting
		if s.ctx.Err() == nil && ctx.Err() == nil {
			s.fail(err)
		}
		return err
	}

	log.WithFields(fields).Info("synchronized")
	s.notifier.Success(successTitle, successMessage)

	return nil
}

// fail turns auto-sync off and tells the user why
func (s *Scheduler) fail(err error) {
	// the timer follows the last persisted value, which may have been turned
	// back on since
	if perr := s.settings.SetAutoSync(false); perr != nil {
		log.ErrorWrap(perr, "persisting auto-sync off")
		s.forceOff()
	} else if rerr := s.Reload(); rerr != nil {
		log.ErrorWrap(rerr, "reloading auto-sync settings")
		s.forceOff()
	}

	s.notifier.Failure(failureTitle, fmt.Sprintf("%s\n\n%s", err.Error(), notify.AutoSyncDisabledNotice))
}

func (s *Scheduler) forceOff() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(false, s.interval)
}

// State returns the current state
func (s *Scheduler) State() State {
	return s.Status().State
}

// Status returns a snapshot of the scheduler
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:    StateDisabled,
		Enabled:  s.enabled,
		Interval: s.interval,
	}
	if s.running {
		st.State = StateRunning
	} else if s.enabled {
		st.State = StateIdle
	}

	return st
}

// Close tears the timer down and waits for the attempt in flight. If ctx ends
// first the attempt is cancelled.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.apply(false, s.interval)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
