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

// Package watch notices when another process changes the database file
package watch

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
)

// DefaultInterval is how often the database file is polled
const DefaultInterval = time.Second

// Watcher calls a function whenever the database file or its write-ahead log
// changes on disk
type Watcher struct {
	w        *watcher.Watcher
	interval time.Duration
	onChange func()
	done     chan struct{}
}

// New returns a watcher of the database at dbPath
func New(dbPath string, interval time.Duration, onChange func()) (*Watcher, error) {
	w := watcher.New()
	w.FilterOps(watcher.Write, watcher.Create)

	name := regexp.QuoteMeta(filepath.Base(dbPath))
	w.AddFilterHook(watcher.RegexFilterHook(regexp.MustCompile(fmt.Sprintf("^%s(-wal)?$", name)), false))

	dir := filepath.Dir(dbPath)
	if err := w.Add(dir); err != nil {
		return nil, errors.Wrapf(err, "watching %s", dir)
	}

	return &Watcher{
		w:        w,
		interval: interval,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins polling and returns once the watcher is running
func (w *Watcher) Start() {
	go w.loop()
	go func() {
		if err := w.w.Start(w.interval); err != nil {
			log.ErrorWrap(err, "starting database watcher")
		}
	}()

	w.w.Wait()
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case e := <-w.w.Event:
			// the directory itself changes whenever any file in it is created
			if e.IsDir() {
				continue
			}

			log.WithFields(log.Fields{
				"op":   e.Op.String(),
				"path": e.Path,
			}).Debug("database changed on disk")
			w.onChange()
		case err := <-w.w.Error:
			log.ErrorWrap(err, "watching database")
		case <-w.w.Closed:
			return
		}
	}
}

// Close stops polling
func (w *Watcher) Close() {
	w.w.Close()
	<-w.done
}
