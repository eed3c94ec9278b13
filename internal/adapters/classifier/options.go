// Package classifier provides the HTTP adapter for a remote
// model-serving endpoint.
package classifier

import (
	"net/http"
	"time"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout sets the per-query HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithSchemaTTL sets how long a fetched schema stays fresh.
func WithSchemaTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.schemaTTL = ttl
		}
	}
}

// WithNullValue sets the sentinel used to pad missing feature columns
// when the schema does not declare its own.
func WithNullValue(v float64) Option {
	return func(c *Client) {
		c.nullValue = v
	}
}

// WithStaticSchema pins the expected feature columns, disabling the
// GET /schema fetch entirely. Used when the deployed model has no
// schema endpoint.
func WithStaticSchema(columns []string) Option {
	return func(c *Client) {
		if len(columns) > 0 {
			c.staticColumns = columns
		}
	}
}
