// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ncbi implements a client
// for the taxonomy database
// of the NCBI E-utilities
// <https://www.ncbi.nlm.nih.gov/books/NBK25501/>.
//
// Requests are rate limited
// (we don't want to overload the NCBI servers!)
// and retried with exponential backoff
// on transient failures.
package ncbi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DefaultURL is the URL of the NCBI E-utilities service.
const DefaultURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// Config holds the configuration of a Client.
// The zero value is usable
// and will be filled with the defaults.
type Config struct {
	// URL of the E-utilities service.
	URL string

	// QPS is the maximum number of queries per second.
	// NCBI allows 10 queries per second
	// with an API key,
	// and 3 without one.
	QPS float64

	// Burst of the rate limiter.
	Burst int

	// Retry is the number of times a request will be retried
	// before aborted.
	Retry int

	// Timeout is the timeout of the http request.
	Timeout time.Duration

	// Tool and Email identify the client
	// to the NCBI service.
	Tool  string
	Email string

	// APIKey is an NCBI API key.
	APIKey string
}

func (cfg Config) withDefaults() Config {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.QPS <= 0 {
		cfg.QPS = 10
		if cfg.APIKey == "" {
			cfg.QPS = 3
		}
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return cfg
}

// A Client makes queries
// to the NCBI taxonomy database.
type Client struct {
	cfg Config
	hc  *http.Client
	rl  *rate.Limiter
}

// NewClient creates a new client
// with the given configuration.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
		rl:  rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst),
	}
}

// Get makes a rate limited request
// to an E-utilities endpoint
// and returns the response body.
// Server errors and rate limit rejections
// are retried with exponential backoff;
// any other client error aborts the request.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if c.cfg.Tool != "" {
		q.Set("tool", c.cfg.Tool)
	}
	if c.cfg.Email != "" {
		q.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	u := c.cfg.URL + endpoint + "?" + q.Encode()

	var body []byte
	op := func() error {
		if err := c.rl.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("ncbi: %s: status %s", endpoint, resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("ncbi: %s: status %s", endpoint, resp.Status))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.cfg.Retry)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return body, nil
}
