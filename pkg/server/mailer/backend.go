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

package mailer

import (
	"github.com/dnote/scriptorium/pkg/server/config"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// ErrSMTPNotConfigured is an error indicating that SMTP is not configured
var ErrSMTPNotConfigured = errors.New("SMTP is not configured")

// Backend delivers rendered messages
type Backend interface {
	Send(m Message) error
}

// Dialer sends gomail messages
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPBackend sends messages through a mail server without queueing
type SMTPBackend struct {
	Dialer Dialer
}

// NewSMTPBackend returns a backend for the given mail server
func NewSMTPBackend(s config.SMTP) (*SMTPBackend, error) {
	if !s.Configured() {
		return nil, ErrSMTPNotConfigured
	}

	return &SMTPBackend{
		Dialer: gomail.NewDialer(s.Host, s.Port, s.Username, s.Password),
	}, nil
}

// Send sends the message immediately
func (b *SMTPBackend) Send(m Message) error {
	if len(m.To) == 0 {
		return errors.New("no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.To...)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody(ContentTypeText, m.Body)

	if err := b.Dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "dialing and sending email")
	}

	return nil
}

// LogBackend logs messages instead of sending them. It serves development
// setups and servers without a mail server.
type LogBackend struct{}

// Send logs the message
func (LogBackend) Send(m Message) error {
	log.WithFields(log.Fields{
		"subject": m.Subject,
		"to":      m.To,
		"from":    m.From,
		"body":    m.Body,
	}).Info("email not sent")

	return nil
}

// NewBackend picks the backend for the configuration. Mail only leaves the
// machine in production with a mail server configured.
func NewBackend(c config.Config) Backend {
	if !c.IsProd() {
		return LogBackend{}
	}

	b, err := NewSMTPBackend(c.SMTP)
	if err != nil {
		log.WithFields(log.Fields{
			"error": err.Error(),
		}).Warn("alert emails will be logged instead of sent")
		return LogBackend{}
	}

	return b
}
