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

package middleware

import (
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dnote/scriptorium/pkg/server/log"
	"golang.org/x/time/rate"
)

// Policy is a token bucket applied to each client of a route class
type Policy struct {
	Name  string
	Every time.Duration
	Burst int
}

// Unlimited reports whether the policy lets every request through
func (p Policy) Unlimited() bool {
	return p.Burst == 0
}

var (
	// NoLimit exempts a route from rate limiting
	NoLimit = Policy{}
	// ReadPolicy covers listing and polling. The GUI polls sync status and
	// notifications frequently.
	ReadPolicy = Policy{Name: "read", Every: 20 * time.Millisecond, Burst: 100}
	// WritePolicy covers registry and settings changes
	WritePolicy = Policy{Name: "write", Every: 100 * time.Millisecond, Burst: 20}
	// TriggerPolicy covers requests that open remote connections
	TriggerPolicy = Policy{Name: "trigger", Every: time.Second, Burst: 5}
)

// idleTimeout is how long a client bucket survives without requests
const idleTimeout = 3 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one bucket per client and policy
type RateLimiter struct {
	buckets map[string]*bucket
	mtx     sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a new rate limiter and starts evicting idle buckets
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.evictLoop(time.Minute)

	return rl
}

var defaultLimiter = NewRateLimiter()

// Close stops the eviction loop
func (rl *RateLimiter) Close() {
	rl.once.Do(func() {
		close(rl.done)
	})
}

// take reports whether the client may proceed under the policy
func (rl *RateLimiter) take(p Policy, client string, now time.Time) bool {
	key := p.Name + "|" + client

	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(p.Every), p.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1)
}

// evict drops buckets idle since before the cutoff
func (rl *RateLimiter) evict(cutoff time.Time) {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-t.C:
			rl.evict(now.Add(-idleTimeout))
		}
	}
}

// clientHost returns the host of the peer without its port. The server only
// listens on loopback, so forwarding headers are not trusted.
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// Limit is a middleware to rate limit the handler under the given policy
func (rl *RateLimiter) Limit(p Policy, next http.Handler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientHost(r)

		if !rl.take(p, client, time.Now()) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			log.WithFields(log.Fields{
				"ip":     client,
				"policy": p.Name,
				"path":   r.URL.Path,
			}).Warn("Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ApplyLimit applies the policy using the global limiter
func ApplyLimit(h http.HandlerFunc, p Policy) http.Handler {
	if p.Unlimited() || os.Getenv("APP_ENV") == "TEST" {
		return h
	}

	return defaultLimiter.Limit(p, h)
}
