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

// Package reconcile synchronizes the local database with the remote servers
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DefaultMaxRounds is the number of passes over the remotes after which a
// synchronization gives up converging
const DefaultMaxRounds = 10

// Synchronizer performs one synchronization attempt
type Synchronizer interface {
	Synchronize(ctx context.Context) error
}

// Lister reads remote server descriptors
type Lister interface {
	List() ([]database.RemoteServer, error)
}

// Opener connects to a remote server with an up to date schema
type Opener interface {
	Open(ctx context.Context, s database.RemoteServer) (*gorm.DB, error)
}

// SyncError aggregates every error of a synchronization attempt
type SyncError struct {
	Errors []error
}

func (e *SyncError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}

	return strings.Join(msgs, "\n")
}

// IsSyncError reports whether err is a synchronization failure
func IsSyncError(err error) bool {
	_, ok := errors.Cause(err).(*SyncError)
	return ok
}

// Reconciler synchronizes the local database with every registered remote
type Reconciler struct {
	local  *gorm.DB
	lister Lister
	opener Opener

	// MaxRounds bounds the passes over the remotes
	MaxRounds int
}

// New returns a new reconciler
func New(local *gorm.DB, l Lister, o Opener) *Reconciler {
	return &Reconciler{
		local:     local,
		lister:    l,
		opener:    o,
		MaxRounds: DefaultMaxRounds,
	}
}

type remote struct {
	server database.RemoteServer
	db     *gorm.DB
}

func describe(s database.RemoteServer) string {
	return fmt.Sprintf("%s@%s:%d/%s", s.User, s.Host, s.Port, s.DB)
}

// Synchronize exchanges tombstones, books and documents between the local
// database and each remote until a full pass makes no change. A remote that
// cannot be opened or synchronized is left out of the remaining passes.
func (r *Reconciler) Synchronize(ctx context.Context) error {
	servers, err := r.lister.List()
	if err != nil {
		return &SyncError{Errors: []error{err}}
	}

	var errs []error
	var remotes []remote
	for _, s := range servers {
		db, err := r.opener.Open(ctx, s)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "connecting to %s", describe(s)))
			continue
		}

		remotes = append(remotes, remote{server: s, db: db})
	}
	defer func() {
		for _, rm := range remotes {
			database.Close(rm.db)
		}
	}()

	rounds := 0
	for len(remotes) > 0 && rounds < r.MaxRounds {
		rounds++

		changed := false
		var next []remote
		for _, rm := range remotes {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				return &SyncError{Errors: errs}
			}

			c, err := syncPair(ctx, r.local, rm.db)
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "synchronizing with %s", describe(rm.server)))
				database.Close(rm.db)
				continue
			}

			changed = changed || c
			next = append(next, rm)
		}
		remotes = next

		if !changed {
			break
		}
	}

	log.WithFields(log.Fields{
		"remotes": len(servers),
		"rounds":  rounds,
		"errors":  len(errs),
	}).Info("synchronization finished")

	if len(errs) > 0 {
		return &SyncError{Errors: errs}
	}

	return nil
}

// syncPair reconciles one pair of databases and reports whether either side
// was modified
func syncPair(ctx context.Context, local, remote *gorm.DB) (bool, error) {
	local = local.WithContext(ctx)
	remote = remote.WithContext(ctx)

	deleted, err := syncDeletions(local, remote)
	if err != nil {
		return false, errors.Wrap(err, "exchanging deletions")
	}

	books, err := syncBooks(local, remote)
	if err != nil {
		return false, errors.Wrap(err, "merging books")
	}

	documents, err := syncDocuments(local, remote)
	if err != nil {
		return false, errors.Wrap(err, "merging documents")
	}

	return deleted || books || documents, nil
}
