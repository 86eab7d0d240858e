// internal/features/cache.go
package features

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/metrics"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// RegionCache is a read-through TTL cache of feature snapshots keyed by the
// coarse (province, city, district) region. Entries are whole immutable
// snapshots, replaced on expiry, never partially updated.
type RegionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewRegionCache builds the cache. TTL is typically 24h.
func NewRegionCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RegionCache {
	return &RegionCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "feature-cache"}),
	}
}

func cacheKey(region models.Region) string {
	return fmt.Sprintf("features:%s:%s:%s", region.Province, region.City, region.District)
}

// Get returns the cached snapshot for the region, or nil on miss. Cache
// errors degrade to a miss so extraction can proceed against live queries.
func (c *RegionCache) Get(ctx context.Context, region models.Region) *models.FeatureSet {
	val, err := c.client.Get(ctx, cacheKey(region)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", map[string]interface{}{
				"key":   cacheKey(region),
				"error": err.Error(),
			})
		}
		metrics.FeatureCacheLookups.WithLabelValues("miss").Inc()
		return nil
	}

	var features models.FeatureSet
	if err := json.Unmarshal([]byte(val), &features); err != nil {
		c.logger.Warn("cache entry corrupt, discarding", map[string]interface{}{
			"key":   cacheKey(region),
			"error": err.Error(),
		})
		metrics.FeatureCacheLookups.WithLabelValues("miss").Inc()
		return nil
	}

	metrics.FeatureCacheLookups.WithLabelValues("hit").Inc()
	return &features
}

// Set stores a snapshot with the configured TTL. Failures are logged only.
func (c *RegionCache) Set(ctx context.Context, region models.Region, features *models.FeatureSet) {
	data, err := json.Marshal(features)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(region), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   cacheKey(region),
			"error": err.Error(),
		})
	}
}
