package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/openscout/gridiron/pkg/logger"
	"github.com/openscout/gridiron/pkg/metrics"
)

// schemaCache holds the model's declared feature columns. Reads are
// lock-cheap; a stale cache is refreshed by exactly one caller while
// the rest wait on the same flight.
type schemaCache struct {
	mu      sync.RWMutex
	columns []string
	null    float64
	fetched time.Time
	static  bool
	flight  singleflight.Group
}

// pad reshapes the vector to the model's declared schema: expected
// columns missing from the vector are filled with the null sentinel,
// unknown keys are dropped. Padding an exactly-matching vector is a
// no-op, so pad(pad(v)) == pad(v). With no schema available the
// vector passes through unchanged.
func (c *Client) pad(ctx context.Context, features map[string]float64) map[string]float64 {
	columns, null, ok := c.schema(ctx)
	if !ok {
		return features
	}

	out := make(map[string]float64, len(columns))
	for _, col := range columns {
		if v, present := features[col]; present {
			out[col] = v
		} else {
			out[col] = null
		}
	}
	return out
}

// schema returns the declared column list, refreshing the cache when
// stale. A failed refresh serves the previous copy when one exists.
func (c *Client) schema(ctx context.Context) ([]string, float64, bool) {
	c.cache.mu.RLock()
	if c.cache.static || (len(c.cache.columns) > 0 && time.Since(c.cache.fetched) < c.schemaTTL) {
		columns, null := c.cache.columns, c.cache.null
		c.cache.mu.RUnlock()
		return columns, null, true
	}
	c.cache.mu.RUnlock()

	_, err, _ := c.cache.flight.Do("schema", func() (interface{}, error) {
		return nil, c.refreshSchema(ctx)
	})
	if err != nil {
		c.log.Warn(ctx, "schema refresh failed, sending vector as-is", logger.Error(err))
	}

	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()
	if len(c.cache.columns) == 0 {
		return nil, 0, false
	}
	return c.cache.columns, c.cache.null, true
}

// refreshSchema fetches GET /schema and installs the result.
func (c *Client) refreshSchema(ctx context.Context) error {
	var payload schemaPayload
	if err := c.get(ctx, schemaPath, &payload); err != nil {
		metrics.RecordSchemaRefresh(metrics.OutcomeError)
		return err
	}
	if len(payload.Columns) == 0 {
		metrics.RecordSchemaRefresh(metrics.OutcomeError)
		return fmt.Errorf("schema declared no columns")
	}

	null := c.nullValue
	if payload.NullValue != nil {
		null = *payload.NullValue
	}

	c.cache.mu.Lock()
	c.cache.columns = payload.Columns
	c.cache.null = null
	c.cache.fetched = time.Now()
	c.cache.mu.Unlock()

	metrics.RecordSchemaRefresh(metrics.OutcomeOK)
	c.log.Debug(ctx, "schema refreshed",
		logger.Int("columns", len(payload.Columns)),
		logger.Float64("null_value", null))
	return nil
}

// setStaticSchema installs a fixed column list that never expires and
// is never fetched.
func (c *Client) setStaticSchema(columns []string, null float64) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	c.cache.columns = columns
	c.cache.null = null
	c.cache.static = true
}
