// Package cache provides a Redis read-through cache for the hot verification
// path. The registry is append-mostly: a credential record only ever changes
// on revocation, so cached verification results stay correct until the
// service invalidates the entry inside the revoke path.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"credchain/internal/platform/metrics"
	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
	"credchain/pkg/circuit"
)

const keyPrefix = "credchain:verify:"

// VerificationCache caches VerifyCredential responses keyed by EduID.
// A nil *VerificationCache is valid and disables caching.
type VerificationCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
	breaker *circuit.Breaker
}

// NewVerification constructs a verification cache with the given TTL. A
// circuit breaker guards the reads and writes so a down Redis costs one
// timeout per cooldown window instead of one per verification.
func NewVerification(client *redis.Client, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *VerificationCache {
	return &VerificationCache{
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
		breaker: circuit.New("verify-cache"),
	}
}

// Get returns a cached verification response, or false on miss. Redis
// failures degrade to a miss so verification never depends on the cache.
func (c *VerificationCache) Get(ctx context.Context, id eduid.EduID) (*models.VerifyCredentialResponse, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	if !c.breaker.Allow() {
		c.miss()
		return nil, false
	}
	raw, err := c.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if err != nil && err != redis.Nil {
		if c.breaker.RecordFailure() && c.logger != nil {
			c.logger.Warn("verify cache circuit opened", "error", err)
		}
		c.miss()
		return nil, false
	}
	c.breaker.RecordSuccess()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	var resp models.VerifyCredentialResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		if c.logger != nil {
			c.logger.Warn("verify cache entry corrupt, dropping", "error", err, "edu_id", id)
		}
		c.client.Del(ctx, keyPrefix+id.String())
		c.miss()
		return nil, false
	}
	c.hit()
	return &resp, true
}

// Set stores a verification response for the configured TTL.
func (c *VerificationCache) Set(ctx context.Context, id eduid.EduID, resp *models.VerifyCredentialResponse) {
	if c == nil || c.client == nil || !c.breaker.Allow() {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+id.String(), raw, c.ttl).Err(); err != nil {
		if c.breaker.RecordFailure() && c.logger != nil {
			c.logger.Warn("verify cache circuit opened", "error", err)
		}
		return
	}
	c.breaker.RecordSuccess()
}

// Invalidate drops the cached entry; called inside the revoke path so a
// revoked credential is never served as valid from cache.
func (c *VerificationCache) Invalidate(ctx context.Context, id eduid.EduID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+id.String()).Err(); err != nil && c.logger != nil {
		c.logger.Warn("verify cache invalidation failed", "error", err, "edu_id", id)
	}
}

func (c *VerificationCache) hit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *VerificationCache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}
