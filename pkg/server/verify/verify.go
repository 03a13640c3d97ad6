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

// Package verify checks the reachability of remote servers and keeps the
// verification status of each of them
package verify

import (
	"context"
	"sync"
	"time"

	"github.com/dnote/scriptorium/pkg/clock"
	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// State is the verification state of a remote server
type State string

const (
	// StatePending means a check is in flight
	StatePending State = "pending"
	// StateVerified means the last check succeeded
	StateVerified State = "verified"
	// StateFailed means the last check failed
	StateFailed State = "failed"
)

// Status is the result of the latest check of a remote server
type Status struct {
	ServerID  string    `json:"server_id"`
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker checks a single remote server
type Checker interface {
	Check(ctx context.Context, s database.RemoteServer) error
}

// Lister reads remote server descriptors
type Lister interface {
	List() ([]database.RemoteServer, error)
	Get(id string) (database.RemoteServer, error)
}

// Verifier runs checks against remote servers and records their statuses.
// Every check is tagged with a generation and only the result of the latest
// generation of a server is recorded.
type Verifier struct {
	lister  Lister
	checker Checker
	clock   clock.Clock

	// OnUpdate, if set, is called after a result is recorded
	OnUpdate func(Status)

	mu          sync.Mutex
	statuses    map[string]Status
	generations map[string]uint64
	seq         uint64
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a new verifier
func New(l Lister, c Checker, clk clock.Clock) *Verifier {
	ctx, cancel := context.WithCancel(context.Background())

	return &Verifier{
		lister:      l,
		checker:     c,
		clock:       clk,
		statuses:    make(map[string]Status),
		generations: make(map[string]uint64),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// VerifyAll marks every registered server as pending and checks all of them
// concurrently. It returns once the checks are started. Only a failure to read
// the registry is returned.
func (v *Verifier) VerifyAll() error {
	servers, err := v.lister.List()
	if err != nil {
		return errors.Wrap(err, "listing remote servers")
	}

	v.start(servers)

	return nil
}

// Verify re-checks the server with the given id
func (v *Verifier) Verify(id string) error {
	s, err := v.lister.Get(id)
	if err != nil {
		return err
	}

	v.start([]database.RemoteServer{s})

	return nil
}

type job struct {
	server     database.RemoteServer
	generation uint64
}

func (v *Verifier) start(servers []database.RemoteServer) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}

	jobs := make([]job, 0, len(servers))
	for _, s := range servers {
		v.seq++
		gen := v.seq
		v.generations[s.ID] = gen
		v.statuses[s.ID] = Status{ServerID: s.ID, State: StatePending}

		jobs = append(jobs, job{server: s, generation: gen})
	}
	v.wg.Add(1)
	v.mu.Unlock()

	var g errgroup.Group
	for _, j := range jobs {
		g.Go(func() error {
			v.run(j)
			return nil
		})
	}

	go func() {
		defer v.wg.Done()
		g.Wait()
	}()
}

func (v *Verifier) run(j job) {
	err := v.checker.Check(v.ctx, j.server)

	st := Status{
		ServerID:  j.server.ID,
		CheckedAt: v.clock.Now(),
	}
	if err != nil {
		st.State = StateFailed
		st.Message = err.Error()
	} else {
		st.State = StateVerified
	}

	v.mu.Lock()
	if v.closed || v.generations[j.server.ID] != j.generation {
		v.mu.Unlock()
		return
	}
	v.statuses[j.server.ID] = st
	hook := v.OnUpdate
	v.mu.Unlock()

	fields := log.Fields{
		"server_id": j.server.ID,
		"host":      j.server.Host,
		"port":      j.server.Port,
		"db":        j.server.DB,
	}
	if err != nil {
		log.WithFields(fields).ErrorWrap(err, "verifying remote server")
	} else {
		log.WithFields(fields).Debug("remote server verified")
	}

	if hook != nil {
		hook(st)
	}
}

// Status returns the status of the server with the given id
func (v *Verifier) Status(id string) (Status, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	st, ok := v.statuses[id]
	return st, ok
}

// Statuses returns a snapshot of every known status keyed by server id
func (v *Verifier) Statuses() map[string]Status {
	v.mu.Lock()
	defer v.mu.Unlock()

	ret := make(map[string]Status, len(v.statuses))
	for id, st := range v.statuses {
		ret[id] = st
	}

	return ret
}

// Forget drops the status of a server that was removed from the registry.
// A check still in flight for it is discarded.
func (v *Verifier) Forget(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.statuses, id)
	delete(v.generations, id)
}

// Wait blocks until every started check has finished
func (v *Verifier) Wait() {
	v.wg.Wait()
}

// Close cancels every outstanding check and waits for them to return. Results
// arriving after Close are discarded.
func (v *Verifier) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()

	v.cancel()
	v.wg.Wait()
}
