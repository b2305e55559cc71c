package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"credchain/internal/registry/cache"
	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
)

// A nil cache must behave as a permanent miss so the service can run without
// Redis configured.
func TestNilCacheIsSafe(t *testing.T) {
	var c *cache.VerificationCache
	ctx := context.Background()
	id := eduid.EduID("CREDCHAIN-AB5D-1708105200000-A3K9")

	resp, ok := c.Get(ctx, id)
	assert.False(t, ok)
	assert.Nil(t, resp)

	c.Set(ctx, id, &models.VerifyCredentialResponse{Exists: true})
	c.Invalidate(ctx, id)
}
