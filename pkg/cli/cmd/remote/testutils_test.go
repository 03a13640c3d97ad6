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

package remote

import (
	"context"
	"sync"

	"github.com/dnote/scriptorium/pkg/server/database"
)

// switchChecker reports every remote server with a result that can be changed
type switchChecker struct {
	mu  sync.Mutex
	err error
}

func (c *switchChecker) set(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err = err
}

func (c *switchChecker) Check(ctx context.Context, s database.RemoteServer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}
