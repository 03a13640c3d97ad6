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

package notify

import (
	"fmt"
	"strings"

	"github.com/dnote/scriptorium/pkg/server/mailer"
	"github.com/nicholas-fedor/shoutrrr"
	"github.com/pkg/errors"
)

// Sender abstracts message dispatch so that relays can be tested
type Sender interface {
	Send(url, message string) error
}

// ShoutrrrSender dispatches via the shoutrrr library
type ShoutrrrSender struct{}

// Send sends the message to the service the url points at
func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// ShoutrrrRelay sends failures to chat and push services
type ShoutrrrRelay struct {
	urls   []string
	sender Sender
}

// NewShoutrrrRelay returns a relay for the given service urls. A nil sender
// uses shoutrrr.
func NewShoutrrrRelay(urls []string, sender Sender) *ShoutrrrRelay {
	if sender == nil {
		sender = ShoutrrrSender{}
	}

	return &ShoutrrrRelay{urls: urls, sender: sender}
}

func formatMessage(n Notification) string {
	return fmt.Sprintf("[Scriptorium] %s\n%s", n.Title, n.Message)
}

// Relay sends the notification to every url and returns the errors of the
// ones that failed
func (r *ShoutrrrRelay) Relay(n Notification) error {
	msg := formatMessage(n)

	var failed []string
	for _, u := range r.urls {
		if err := r.sender.Send(u, msg); err != nil {
			failed = append(failed, err.Error())
		}
	}

	if len(failed) > 0 {
		return errors.Errorf("sending to %d of %d services: %s", len(failed), len(r.urls), strings.Join(failed, "; "))
	}

	return nil
}

// EmailRelay mails failures to the configured recipients
type EmailRelay struct {
	backend mailer.Backend
	from    string
	to      []string
}

// NewEmailRelay returns a new email relay
func NewEmailRelay(b mailer.Backend, from string, to []string) *EmailRelay {
	return &EmailRelay{backend: b, from: from, to: to}
}

// Relay mails the notification
func (r *EmailRelay) Relay(n Notification) error {
	m, err := mailer.RenderSyncFailure(r.from, r.to, mailer.SyncFailure{
		Time:     n.CreatedAt,
		Message:  n.Message,
		Disabled: strings.Contains(n.Message, AutoSyncDisabledNotice),
	})
	if err != nil {
		return errors.Wrap(err, "rendering email")
	}

	if err := r.backend.Send(m); err != nil {
		return errors.Wrap(err, "sending email")
	}

	return nil
}
