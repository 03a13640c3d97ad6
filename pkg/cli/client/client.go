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

// Package client talks to a running scriptorium server
// and holds the data structures for its responses
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	scriptoriumCtx "github.com/dnote/scriptorium/pkg/cli/context"
	"github.com/dnote/scriptorium/pkg/cli/log"
	"github.com/dnote/scriptorium/pkg/server/autosync"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ProbeTimeout bounds the check for a running server
const ProbeTimeout = 500 * time.Millisecond

// ErrContentTypeMismatch is an error for a response in an unexpected format
var ErrContentTypeMismatch = errors.New("content type mismatch")

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsSyncFailure returns true if the server ran a synchronization attempt that failed
func (e *HTTPError) IsSyncFailure() bool {
	return e.StatusCode == http.StatusBadGateway
}

var contentTypeApplicationJSON = "application/json"
var contentTypeNone = ""

// requestOptions contains options for requests
type requestOptions struct {
	HTTPClient *http.Client
	// ExpectedContentType is the Content-Type that the client is expecting from the server.
	// An empty value skips the check.
	ExpectedContentType *string
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

func getHTTPClient(ctx scriptoriumCtx.ScriptoriumCtx, options *requestOptions) *http.Client {
	if options != nil && options.HTTPClient != nil {
		return options.HTTPClient
	}

	if ctx.HTTPClient != nil {
		return ctx.HTTPClient
	}

	return &http.Client{}
}

func getExpectedContentType(options *requestOptions) string {
	if options != nil && options.ExpectedContentType != nil {
		return *options.ExpectedContentType
	}

	return contentTypeApplicationJSON
}

func getReq(c context.Context, ctx scriptoriumCtx.ScriptoriumCtx, method, path, body string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", ctx.APIEndpoint, path)
	req, err := http.NewRequestWithContext(c, method, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", ctx.Version)
	if body != "" {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}

	return req, nil
}

// checkRespErr returns an HTTPError carrying the response body if the
// response indicates an error
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(string(body), "\n"),
	}
}

func checkContentType(res *http.Response, options *requestOptions) error {
	expected := getExpectedContentType(options)
	if expected == contentTypeNone {
		return nil
	}

	got := res.Header.Get("Content-Type")
	if got != expected {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure the server address correctly?", got, expected)
	}

	return nil
}

// doReq does a http request to the given path in the api endpoint. The
// given path should include the preceding slash. The caller closes the body
// of a successful response.
func doReq(c context.Context, ctx scriptoriumCtx.ScriptoriumCtx, method, path, body string, options *requestOptions) (*http.Response, error) {
	req, err := getReq(c, ctx, method, path, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	hc := getHTTPClient(ctx, options)
	res, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "server responded with an error")
	}

	if err = checkContentType(res, options); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "unexpected Content-Type")
	}

	return res, nil
}

func decodeBody(res *http.Response, v interface{}) error {
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "reading the response body")
	}

	if err = json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "unmarshalling the payload")
	}

	return nil
}

// Health reports whether a server answers at the configured address
// within ProbeTimeout
func Health(ctx scriptoriumCtx.ScriptoriumCtx) bool {
	c, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()

	res, err := doReq(c, ctx, "GET", "/health", "", &requestOptions{
		ExpectedContentType: &contentTypeNone,
	})
	if err != nil {
		log.Debug("server is not reachable: %s\n", err.Error())
		return false
	}
	res.Body.Close()

	return true
}

// GetSyncStatus gets the state of the auto-sync scheduler from the server
func GetSyncStatus(ctx scriptoriumCtx.ScriptoriumCtx) (autosync.Status, error) {
	var ret autosync.Status

	res, err := doReq(context.Background(), ctx, "GET", "/api/sync", "", nil)
	if err != nil {
		return ret, errors.Wrap(err, "making the request")
	}

	if err := decodeBody(res, &ret); err != nil {
		return ret, err
	}

	return ret, nil
}

// Sync asks the server to synchronize right away and waits for the attempt
// to finish
func Sync(ctx scriptoriumCtx.ScriptoriumCtx) (autosync.Status, error) {
	var ret autosync.Status

	res, err := doReq(context.Background(), ctx, "POST", "/api/sync", "", nil)
	if err != nil {
		return ret, errors.Wrap(err, "making the request")
	}

	if err := decodeBody(res, &ret); err != nil {
		return ret, err
	}

	return ret, nil
}

// VerifyAll asks the server to check every remote server again
func VerifyAll(ctx scriptoriumCtx.ScriptoriumCtx) error {
	res, err := doReq(context.Background(), ctx, "POST", "/api/remotes/verify", "", &requestOptions{
		ExpectedContentType: &contentTypeNone,
	})
	if err != nil {
		return errors.Wrap(err, "making the request")
	}
	res.Body.Close()

	return nil
}
