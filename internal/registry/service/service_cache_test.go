package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/audit"
	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
	"credchain/internal/registry/store"
	"credchain/pkg/domain"
)

// mapCache is an in-memory VerifyCache so cache interactions can be observed
// without Redis.
type mapCache struct {
	mu      sync.Mutex
	entries map[eduid.EduID]*models.VerifyCredentialResponse
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[eduid.EduID]*models.VerifyCredentialResponse{}}
}

func (c *mapCache) Get(_ context.Context, id eduid.EduID) (*models.VerifyCredentialResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.entries[id]
	return resp, ok
}

func (c *mapCache) Set(_ context.Context, id eduid.EduID, resp *models.VerifyCredentialResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = resp
}

func (c *mapCache) Invalidate(_ context.Context, id eduid.EduID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// revokeDuringRead revokes the target credential after the verification read
// has already taken its snapshot, reproducing a revoke landing mid-verify.
type revokeDuringRead struct {
	store.Store
	t      *testing.T
	svc    *Service
	issuer domain.Address
	target eduid.EduID
	once   sync.Once
}

func (s *revokeDuringRead) FindCredential(ctx context.Context, id eduid.EduID) (*models.Credential, error) {
	cred, err := s.Store.FindCredential(ctx, id)
	if err == nil && id == s.target {
		s.once.Do(func() {
			require.NoError(s.t, s.svc.RevokeCredential(ctx, s.issuer, id))
		})
	}
	return cred, err
}

func TestVerifyCredential_RevokeDuringReadNotCachedStale(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	wrapped := &revokeDuringRead{Store: store.NewInMemory(), t: t, issuer: issuerA}
	auditor := audit.NewPublisher(audit.NewInMemoryStore())
	svc := NewService(wrapped, auditor, adminAddr, slog.Default(), WithVerificationCache(cache))
	wrapped.svc = svc

	require.NoError(t, svc.SetIssuerStatus(ctx, adminAddr, issuerA, true, "Test Institution"))
	cred, err := svc.IssueCredential(ctx, issuerA, issueRequest(docHash))
	require.NoError(t, err)
	wrapped.target = cred.EduID

	// The read returns a pre-revocation snapshot while the revoke commits
	// underneath it. The snapshot must not survive in the cache.
	resp, err := svc.VerifyCredential(ctx, cred.EduID)
	require.NoError(t, err)
	require.True(t, resp.Exists)

	_, cached := cache.Get(ctx, cred.EduID)
	assert.False(t, cached, "stale snapshot must not remain cached after a concurrent revoke")

	valid, err := svc.IsCredentialValid(ctx, cred.EduID)
	require.NoError(t, err)
	assert.False(t, valid, "revocation is permanent and must be visible immediately")
}

func TestVerifyCredential_PositiveResultCached(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	auditor := audit.NewPublisher(audit.NewInMemoryStore())
	svc := NewService(store.NewInMemory(), auditor, adminAddr, slog.Default(), WithVerificationCache(cache))

	require.NoError(t, svc.SetIssuerStatus(ctx, adminAddr, issuerA, true, "Test Institution"))
	cred, err := svc.IssueCredential(ctx, issuerA, issueRequest(docHash))
	require.NoError(t, err)

	resp, err := svc.VerifyCredential(ctx, cred.EduID)
	require.NoError(t, err)
	require.True(t, resp.Exists)

	entry, cached := cache.Get(ctx, cred.EduID)
	require.True(t, cached)
	assert.Equal(t, cred.EduID, entry.Credential.EduID)

	// A revoke through the normal path drops the entry.
	require.NoError(t, svc.RevokeCredential(ctx, issuerA, cred.EduID))
	_, cached = cache.Get(ctx, cred.EduID)
	assert.False(t, cached)
}
