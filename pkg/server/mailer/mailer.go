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

// Package mailer renders alert emails and sends them
package mailer

import (
	"bytes"
	"text/template"
	"time"

	"github.com/dnote/scriptorium/pkg/server/mailer/templates"
	"github.com/pkg/errors"
)

const (
	// ContentTypeText is the content type of every alert email
	ContentTypeText = "text/plain"
	// SubjectSyncFailure is the subject of a sync failure alert
	SubjectSyncFailure = "Scriptorium synchronization failed"
	// TimeLayout is how alert times are written
	TimeLayout = "2006-01-02 15:04:05 MST"
)

// Message is a rendered email
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// SyncFailure is an alert about a failed synchronization attempt
type SyncFailure struct {
	Time    time.Time
	Message string
	// Disabled is set when the failure turned automatic synchronization off
	Disabled bool
}

var syncFailureTmpl = mustParse("sync_failure.txt")

func mustParse(filename string) *template.Template {
	content, err := templates.Files.ReadFile(filename)
	if err != nil {
		panic(errors.Wrapf(err, "reading template %s", filename))
	}

	t, err := template.New(filename).Funcs(template.FuncMap{
		"timestamp": func(t time.Time) string {
			return t.Format(TimeLayout)
		},
	}).Parse(string(content))
	if err != nil {
		panic(errors.Wrapf(err, "parsing template %s", filename))
	}

	return t
}

// RenderSyncFailure renders the alert for the given failure
func RenderSyncFailure(from string, to []string, f SyncFailure) (Message, error) {
	buf := new(bytes.Buffer)
	if err := syncFailureTmpl.Execute(buf, f); err != nil {
		return Message{}, errors.Wrap(err, "executing the template")
	}

	return Message{
		From:    from,
		To:      to,
		Subject: SubjectSyncFailure,
		Body:    buf.String(),
	}, nil
}
