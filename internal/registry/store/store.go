// Package store defines the persistence contract for the registry and its
// in-memory and PostgreSQL implementations.
//
// Error contract: methods return sentinel errors (optionally wrapped) so the
// service can translate them into domain errors exactly once:
// sentinel.ErrNotFound for missing records, sentinel.ErrAlreadyExists for an
// EduID collision on insert, sentinel.ErrForbidden when a revocation caller
// is not the original issuer, and sentinel.ErrInvalidState for revoking an
// already-revoked record.
package store

import (
	"context"

	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
	"credchain/pkg/domain"
)

// Store is the persistence interface for issuer whitelist state and
// credential records. Conditional mutations (InsertCredential, Revoke) are
// atomic: preconditions are evaluated under the same lock or transaction
// that applies the write, so no client-side pre-check is ever trusted.
type Store interface {
	UpsertIssuer(ctx context.Context, rec *models.IssuerRecord) error
	FindIssuer(ctx context.Context, addr domain.Address) (*models.IssuerRecord, error)

	InsertCredential(ctx context.Context, cred *models.Credential) error
	FindCredential(ctx context.Context, id eduid.EduID) (*models.Credential, error)

	// Revoke marks the credential revoked iff it exists, caller is its
	// original issuer, and it is not already revoked. Returns the updated
	// record.
	Revoke(ctx context.Context, id eduid.EduID, caller domain.Address) (*models.Credential, error)

	ListStudentCredentials(ctx context.Context, student domain.Address) ([]eduid.EduID, error)
	ListAllCredentials(ctx context.Context) ([]eduid.EduID, error)
	CountCredentials(ctx context.Context) (int, error)
}
