package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/audit"
	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
	"credchain/internal/registry/store"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

var (
	adminAddr   = mustAddr("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	issuerA     = mustAddr("0xab5dcdddb6a900fa2b585dd299e03d12fa4293bc")
	issuerB     = mustAddr("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
	studentS    = mustAddr("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	docHash     = "0x" + repeatHex("aa", 32)
	anotherHash = "0x" + repeatHex("bb", 32)
)

func mustAddr(s string) domain.Address {
	addr, err := domain.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func repeatHex(b string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += b
	}
	return out
}

type fixture struct {
	svc    *Service
	events *audit.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	events := audit.NewInMemoryStore()
	auditor := audit.NewPublisher(events)
	svc := NewService(store.NewInMemory(), auditor, adminAddr, slog.Default())
	return &fixture{svc: svc, events: events}
}

func (f *fixture) whitelist(t *testing.T, issuer domain.Address, name string) {
	t.Helper()
	require.NoError(t, f.svc.SetIssuerStatus(context.Background(), adminAddr, issuer, true, name))
}

func issueRequest(hash string) *models.IssueCredentialRequest {
	return &models.IssueCredentialRequest{
		StudentWallet:   studentS.String(),
		StudentName:     "Asha Verma",
		InstitutionName: "Test Institution",
		CredentialType:  "degree",
		CourseOrProgram: "B.Sc. Physics",
		DocumentHash:    hash,
	}
}

func TestSetIssuerStatus_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.SetIssuerStatus(ctx, issuerA, issuerA, true, "Self Service U")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	whitelisted, err := f.svc.IsWhitelisted(ctx, issuerA)
	require.NoError(t, err)
	assert.False(t, whitelisted, "rejected call must not change state")

	events, err := f.events.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, events, "rejected call must not emit events")
}

func TestIsWhitelisted_DefaultFalse(t *testing.T) {
	f := newFixture(t)
	whitelisted, err := f.svc.IsWhitelisted(context.Background(), issuerB)
	require.NoError(t, err)
	assert.False(t, whitelisted)
}

func TestIssueCredential_EduIDsPairwiseDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.whitelist(t, issuerA, "Test Institution")
	f.whitelist(t, issuerB, "Second Institution")

	seen := make(map[eduid.EduID]struct{})
	for i := 0; i < 50; i++ {
		caller := issuerA
		if i%2 == 1 {
			caller = issuerB
		}
		cred, err := f.svc.IssueCredential(ctx, caller, issueRequest(docHash))
		require.NoError(t, err)
		_, dupe := seen[cred.EduID]
		require.False(t, dupe, "EduID %s minted twice", cred.EduID)
		seen[cred.EduID] = struct{}{}
		assert.True(t, cred.EduID.Valid())
	}
}

func TestIssueCredential_NonWhitelistedRejectedWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.IssueCredential(ctx, issuerB, issueRequest(docHash))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	ids, err := f.svc.GetStudentCredentials(ctx, studentS)
	require.NoError(t, err)
	assert.Empty(t, ids)

	count, err := f.svc.GetCredentialCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	events, err := f.events.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestIssueCredential_DelistedIssuerRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.whitelist(t, issuerA, "Test Institution")
	require.NoError(t, f.svc.SetIssuerStatus(ctx, adminAddr, issuerA, false, "Test Institution"))

	_, err := f.svc.IssueCredential(ctx, issuerA, issueRequest(docHash))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestIssueCredential_InvalidInputs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.whitelist(t, issuerA, "Test Institution")

	t.Run("malformed student address", func(t *testing.T) {
		req := issueRequest(docHash)
		req.StudentWallet = "not-an-address"
		_, err := f.svc.IssueCredential(ctx, issuerA, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("oversized document hash", func(t *testing.T) {
		req := issueRequest("0x" + repeatHex("aa", 33))
		_, err := f.svc.IssueCredential(ctx, issuerA, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("short hash is zero padded", func(t *testing.T) {
		req := issueRequest("0xdeadbeef")
		cred, err := f.svc.IssueCredential(ctx, issuerA, req)
		require.NoError(t, err)
		assert.Equal(t, "0xdeadbeef"+repeatHex("00", 28), cred.DocumentHash.String())
	})
}

func TestIssueCredential_CommitTimeTimestamp(t *testing.T) {
	events := audit.NewInMemoryStore()
	fixed := time.Date(2026, 2, 16, 18, 0, 0, 0, time.UTC)
	svc := NewService(store.NewInMemory(), audit.NewPublisher(events), adminAddr, slog.Default(),
		WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	require.NoError(t, svc.SetIssuerStatus(ctx, adminAddr, issuerA, true, "Test Institution"))

	cred, err := svc.IssueCredential(ctx, issuerA, issueRequest(docHash))
	require.NoError(t, err)
	assert.Equal(t, fixed, cred.IssuedAt)

	issuedAt, err := cred.EduID.IssuedAt()
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), issuedAt.UnixMilli())
}

func TestVerifyCredential_UnknownNeverFails(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.VerifyCredential(context.Background(), "CREDCHAIN-AB5D-1708105200000-ZZZZ")
	require.NoError(t, err)
	assert.False(t, resp.Exists)
	assert.Nil(t, resp.Credential)
}

func TestGetCredentialDetails_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetCredentialDetails(context.Background(), "CREDCHAIN-AB5D-1708105200000-ZZZZ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDocumentHash_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.whitelist(t, issuerA, "Test Institution")

	cred, err := f.svc.IssueCredential(ctx, issuerA, issueRequest(docHash))
	require.NoError(t, err)

	details, err := f.svc.GetCredentialDetails(ctx, cred.EduID)
	require.NoError(t, err)
	assert.Equal(t, cred.DocumentHash, details.DocumentHash)
	assert.Equal(t, docHash, details.DocumentHash.String())

	resp, err := f.svc.VerifyCredential(ctx, cred.EduID)
	require.NoError(t, err)
	assert.Equal(t, cred.DocumentHash, resp.Credential.DocumentHash)
}

func TestRevokeCredential_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.whitelist(t, issuerA, "Test Institution")

	cred, err := f.svc.IssueCredential(ctx, issuerA, issueRequest(docHash))
	require.NoError(t, err)

	valid, err := f.svc.IsCredentialValid(ctx, cred.EduID)
	require.NoError(t, err)
	assert.True(t, valid)

	t.Run("stranger cannot revoke", func(t *testing.T) {
		err := f.svc.RevokeCredential(ctx, issuerB, cred.EduID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("admin cannot revoke either, revocation is issuer-scoped", func(t *testing.T) {
		err := f.svc.RevokeCredential(ctx, adminAddr, cred.EduID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	require.NoError(t, f.svc.RevokeCredential(ctx, issuerA, cred.EduID))

	valid, err = f.svc.IsCredentialValid(ctx, cred.EduID)
	require.NoError(t, err)
	assert.False(t, valid)

	details, err := f.svc.GetCredentialDetails(ctx, cred.EduID)
	require.NoError(t, err)
	assert.True(t, details.Revoked)

	t.Run("revocation is permanent and re-revoking conflicts", func(t *testing.T) {
		err := f.svc.RevokeCredential(ctx, issuerA, cred.EduID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		details, err := f.svc.GetCredentialDetails(ctx, cred.EduID)
		require.NoError(t, err)
		assert.True(t, details.Revoked)
	})

	t.Run("revoking unknown credential is not found", func(t *testing.T) {
		err := f.svc.RevokeCredential(ctx, issuerA, "CREDCHAIN-AB5D-1708105200000-ZZZZ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestStudentIndex_ExactAndOrdered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.whitelist(t, issuerA, "Test Institution")

	var want []eduid.EduID
	for i := 0; i < 4; i++ {
		cred, err := f.svc.IssueCredential(ctx, issuerA, issueRequest(docHash))
		require.NoError(t, err)
		want = append(want, cred.EduID)
	}

	// A credential for a different student must not leak into S's index.
	other := issueRequest(anotherHash)
	other.StudentWallet = issuerB.String()
	_, err := f.svc.IssueCredential(ctx, issuerA, other)
	require.NoError(t, err)

	ids, err := f.svc.GetStudentCredentials(ctx, studentS)
	require.NoError(t, err)
	assert.Equal(t, want, ids)

	all, err := f.svc.GetAllCredentials(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	count, err := f.svc.GetCredentialCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestTransferAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("non-admin cannot transfer", func(t *testing.T) {
		err := f.svc.TransferAdmin(ctx, issuerA, issuerA)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	require.NoError(t, f.svc.TransferAdmin(ctx, adminAddr, issuerB))
	assert.Equal(t, issuerB, f.svc.Admin(ctx))

	t.Run("previous admin loses privileges immediately", func(t *testing.T) {
		err := f.svc.SetIssuerStatus(ctx, adminAddr, issuerA, true, "Test Institution")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	require.NoError(t, f.svc.SetIssuerStatus(ctx, issuerB, issuerA, true, "Test Institution"))
}

// TestScenario_EndToEnd follows the full flow: whitelist A, issue for S,
// verify, revoke, and reject the never-whitelisted B.
func TestScenario_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetIssuerStatus(ctx, adminAddr, issuerA, true, "Test Institution"))
	whitelisted, err := f.svc.IsWhitelisted(ctx, issuerA)
	require.NoError(t, err)
	require.True(t, whitelisted)

	cred, err := f.svc.IssueCredential(ctx, issuerA, issueRequest(docHash))
	require.NoError(t, err)

	resp, err := f.svc.VerifyCredential(ctx, cred.EduID)
	require.NoError(t, err)
	require.True(t, resp.Exists)
	assert.Equal(t, issuerA, resp.Credential.Issuer)
	assert.False(t, resp.Credential.Revoked)

	require.NoError(t, f.svc.RevokeCredential(ctx, issuerA, cred.EduID))
	valid, err := f.svc.IsCredentialValid(ctx, cred.EduID)
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = f.svc.IssueCredential(ctx, issuerB, issueRequest(docHash))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	ids, err := f.svc.GetStudentCredentials(ctx, studentS)
	require.NoError(t, err)
	assert.Equal(t, []eduid.EduID{cred.EduID}, ids)

	events, err := f.events.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, audit.ActionIssuerWhitelisted, events[0].Action)
	assert.Equal(t, audit.ActionCredentialIssued, events[1].Action)
	assert.Equal(t, audit.ActionCredentialRevoked, events[2].Action)
	assert.Equal(t, cred.EduID, events[2].EduID)
	assert.Equal(t, issuerA, events[2].Actor)
}
