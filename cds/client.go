/*
Copyright © 2025 the era5-to-ccpp-scm-tool authors.
This file is part of era5-to-ccpp-scm-tool.

era5-to-ccpp-scm-tool is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

era5-to-ccpp-scm-tool is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with era5-to-ccpp-scm-tool.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cds is a minimal client for the Copernicus Climate Data
// Store (CDS) retrieval API: it submits a retrieval request, polls the
// resulting task until the product is ready, and downloads it.
package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
)

// DefaultURL is the CDS API endpoint used when no other URL is
// configured.
const DefaultURL = "https://cds.climate.copernicus.eu/api/v2"

// Config holds the connection settings for a CDS client. URL and Key
// follow the conventions of the service's ~/.cdsapirc file: Key is in
// "uid:api-key" form.
type Config struct {
	URL string
	Key string

	// HTTPClient optionally overrides the HTTP client used for all
	// requests.
	HTTPClient *http.Client

	// PollInterval is the initial interval between task status checks.
	// Zero means 15 seconds; the interval backs off exponentially from
	// there.
	PollInterval time.Duration

	// Logf, if non-nil, receives progress messages.
	Logf func(format string, args ...interface{})
}

// Client talks to the CDS retrieval API.
type Client struct {
	url      string
	uid, key string
	hc       *http.Client
	poll     time.Duration
	logf     func(format string, args ...interface{})
}

// A Request is the body of a CDS retrieval request, for example
// product type, variables, dates, and area.
type Request map[string]interface{}

// NewClient creates a CDS client from cfg. The key is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("cds: missing API key")
	}
	parts := strings.SplitN(cfg.Key, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("cds: API key must be in uid:key form")
	}
	c := &Client{
		url:  strings.TrimSuffix(cfg.URL, "/"),
		uid:  parts[0],
		key:  parts[1],
		hc:   cfg.HTTPClient,
		poll: cfg.PollInterval,
		logf: cfg.Logf,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.hc == nil {
		c.hc = http.DefaultClient
	}
	if c.poll == 0 {
		c.poll = 15 * time.Second
	}
	if c.logf == nil {
		c.logf = func(string, ...interface{}) {}
	}
	return c, nil
}

// taskReply is the server's description of a retrieval task.
type taskReply struct {
	State     string `json:"state"`
	RequestID string `json:"request_id"`
	Location  string `json:"location"`
	Error     *struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

func (r *taskReply) errMessage() string {
	if r.Error == nil {
		return "unknown error"
	}
	return strings.TrimSpace(r.Error.Message + " " + r.Error.Reason)
}

// Retrieve submits a retrieval request for the named dataset, waits
// for the server to finish preparing it, and downloads the product to
// target.
func (c *Client) Retrieve(ctx context.Context, dataset string, req Request, target string) error {
	task, err := c.submit(ctx, dataset, req)
	if err != nil {
		return err
	}
	c.logf("cds: request %s for %s is %s", task.RequestID, dataset, task.State)

	task, err = c.wait(ctx, task)
	if err != nil {
		return err
	}
	c.logf("cds: request %s completed; downloading to %s", task.RequestID, target)
	return c.download(ctx, task.Location, target)
}

// submit posts the retrieval request and returns the created task.
func (c *Client) submit(ctx context.Context, dataset string, req Request) (*taskReply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("cds: encoding request: %v", err)
	}
	var task taskReply
	if err := c.do(ctx, http.MethodPost, c.url+"/resources/"+dataset, bytes.NewReader(body), &task); err != nil {
		return nil, fmt.Errorf("cds: submitting %s request: %w", dataset, err)
	}
	if task.RequestID == "" {
		return nil, fmt.Errorf("cds: server accepted %s request but returned no request id", dataset)
	}
	return &task, nil
}

// wait polls the task until it completes. Queued and running states
// retry with exponential backoff; a failed state is permanent.
func (c *Client) wait(ctx context.Context, task *taskReply) (*taskReply, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.poll
	b.MaxInterval = 2 * time.Minute
	b.MaxElapsedTime = 0 // wait as long as the context allows

	current := task
	err := backoff.RetryNotify(
		func() error {
			t, err := c.status(ctx, current.RequestID)
			if err != nil {
				return err
			}
			current = t
			switch t.State {
			case "completed":
				return nil
			case "failed":
				return backoff.Permanent(fmt.Errorf("cds: request %s failed: %s", t.RequestID, t.errMessage()))
			default:
				return fmt.Errorf("cds: request %s is %s", t.RequestID, t.State)
			}
		},
		backoff.WithContext(b, ctx),
		func(err error, d time.Duration) {
			c.logf("%v: checking again in %v", err, d)
		},
	)
	if err != nil {
		return nil, err
	}
	if current.Location == "" {
		return nil, fmt.Errorf("cds: request %s completed without a download location", current.RequestID)
	}
	return current, nil
}

func (c *Client) status(ctx context.Context, requestID string) (*taskReply, error) {
	var task taskReply
	if err := c.do(ctx, http.MethodGet, c.url+"/tasks/"+requestID, nil, &task); err != nil {
		return nil, err
	}
	if task.RequestID == "" {
		task.RequestID = requestID
	}
	return &task, nil
}

// download fetches the prepared product. Relative locations are
// resolved against the API endpoint.
func (c *Client) download(ctx context.Context, location, target string) error {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		location = c.url + "/" + strings.TrimPrefix(location, "/")
	}
	req, err := http.NewRequest(http.MethodGet, location, nil)
	if err != nil {
		return fmt.Errorf("cds: building download request: %v", err)
	}
	req = req.WithContext(ctx)
	req.SetBasicAuth(c.uid, c.key)
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("cds: downloading %s: %w", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cds: downloading %s: status %s", location, resp.Status)
	}
	w, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("cds: creating %s: %w", target, err)
	}
	defer w.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("cds: writing %s: %w", target, err)
	}
	return nil
}

// do performs an authenticated JSON request and decodes the response
// into out.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, out interface{}) error {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	req = req.WithContext(ctx)
	req.SetBasicAuth(c.uid, c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %s: %s", method, url, resp.Status, truncate(string(data), 200))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: decoding response: %v", method, url, err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
