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

package remotedb

import (
	"context"
	"time"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/dnote/scriptorium/pkg/server/settings"
	"gorm.io/gorm"
)

// Connector opens remote servers with a connect timeout derived from the
// persisted auto-sync interval
type Connector struct {
	settings *settings.Store
}

// NewConnector returns a new connector
func NewConnector(s *settings.Store) *Connector {
	return &Connector{settings: s}
}

func (c *Connector) timeout() time.Duration {
	conf, err := c.settings.AutoSync()
	if err != nil {
		log.ErrorWrap(err, "reading auto-sync interval")
		return ConnectTimeout(settings.DefaultAutoSyncTime)
	}

	return ConnectTimeout(conf.IntervalSeconds)
}

// Open connects to the server and migrates its schema
func (c *Connector) Open(ctx context.Context, s database.RemoteServer) (*gorm.DB, error) {
	return Open(ctx, s, c.timeout())
}

// Check reports whether the server is reachable and its schema can be
// brought up to date. The connection is closed afterwards.
func (c *Connector) Check(ctx context.Context, s database.RemoteServer) error {
	db, err := c.Open(ctx, s)
	if err != nil {
		return err
	}
	database.Close(db)

	return nil
}
