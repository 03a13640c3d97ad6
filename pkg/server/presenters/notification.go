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

package presenters

import (
	"time"

	"github.com/dnote/scriptorium/pkg/server/notify"
)

// Notification is a result of PresentNotification
type Notification struct {
	ID        string      `json:"id"`
	Kind      notify.Kind `json:"kind"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt *time.Time  `json:"expires_at"`
}

// PresentNotification presents a notification
func PresentNotification(n notify.Notification) Notification {
	ret := Notification{
		ID:        n.ID,
		Kind:      n.Kind,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: FormatTS(n.CreatedAt),
	}

	if n.ExpiresAt != nil {
		ts := FormatTS(*n.ExpiresAt)
		ret.ExpiresAt = &ts
	}

	return ret
}

// PresentNotifications presents notifications
func PresentNotifications(ns []notify.Notification) []Notification {
	ret := []Notification{}

	for _, n := range ns {
		ret = append(ret, PresentNotification(n))
	}

	return ret
}
