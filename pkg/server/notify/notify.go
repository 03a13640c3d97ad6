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

// Package notify keeps the notifications shown to the user and relays
// failures to external services
package notify

import (
	"sync"
	"time"

	"github.com/dnote/scriptorium/pkg/clock"
	"github.com/dnote/scriptorium/pkg/server/helpers"
	"github.com/dnote/scriptorium/pkg/server/log"
)

// AutoSyncDisabledNotice ends the message of a failure that turned
// automatic synchronization off
const AutoSyncDisabledNotice = "Automatic synchronization has been turned off."

// DefaultTTL is how long a success notification stays before closing itself
const DefaultTTL = 4 * time.Second

// Kind is the kind of a notification
type Kind string

const (
	// KindSuccess is a notification that closes itself
	KindSuccess Kind = "success"
	// KindFailure is a notification that stays until dismissed
	KindFailure Kind = "failure"
)

// Notification is a message shown to the user
type Notification struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Relay forwards a failure notification outside of the application
type Relay interface {
	Relay(n Notification) error
}

// Center holds the live notifications
type Center struct {
	clock clock.Clock
	ttl   time.Duration

	mu     sync.Mutex
	items  []Notification
	relays []Relay
	wg     sync.WaitGroup
}

// NewCenter returns a new notification center. Success notifications expire
// after ttl.
func NewCenter(clk clock.Clock, ttl time.Duration) *Center {
	return &Center{
		clock: clk,
		ttl:   ttl,
	}
}

// AddRelay registers a relay for failure notifications
func (c *Center) AddRelay(r Relay) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.relays = append(c.relays, r)
}

func (c *Center) post(kind Kind, title, message string) Notification {
	id, err := helpers.GenUUID()
	if err != nil {
		log.ErrorWrap(err, "generating notification id")
	}

	n := Notification{
		ID:        id,
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: c.clock.Now(),
	}
	if kind == KindSuccess {
		exp := n.CreatedAt.Add(c.ttl)
		n.ExpiresAt = &exp
	}

	c.mu.Lock()
	c.prune()
	c.items = append(c.items, n)
	c.mu.Unlock()

	return n
}

// Success posts a notification that closes itself
func (c *Center) Success(title, message string) Notification {
	return c.post(KindSuccess, title, message)
}

// Failure posts a notification that stays until dismissed and hands it to
// every relay in the background
func (c *Center) Failure(title, message string) Notification {
	n := c.post(KindFailure, title, message)

	c.mu.Lock()
	relays := append([]Relay(nil), c.relays...)
	c.mu.Unlock()

	for _, r := range relays {
		c.wg.Add(1)
		go func(r Relay) {
			defer c.wg.Done()

			if err := r.Relay(n); err != nil {
				log.WithFields(log.Fields{
					"notification_id": n.ID,
				}).ErrorWrap(err, "relaying notification")
			}
		}(r)
	}

	return n
}

// prune drops expired notifications. The caller must hold the lock.
func (c *Center) prune() {
	now := c.clock.Now()

	live := c.items[:0]
	for _, n := range c.items {
		if n.ExpiresAt != nil && !now.Before(*n.ExpiresAt) {
			continue
		}
		live = append(live, n)
	}
	c.items = live
}

// List returns the live notifications, oldest first
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune()

	return append([]Notification{}, c.items...)
}

// Dismiss removes the notification with the given id and reports whether it
// was live
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune()

	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}

	return false
}

// Wait blocks until every relay in flight has returned
func (c *Center) Wait() {
	c.wg.Wait()
}
