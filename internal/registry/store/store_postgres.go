package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
	"credchain/internal/sentinel"
	"credchain/pkg/domain"
)

// PostgresStore persists registry state in PostgreSQL. Insertion order for
// the index queries comes from the bigserial position column; EduID
// uniqueness is backed by the primary key, so a colliding insert surfaces as
// sentinel.ErrAlreadyExists without a separate lookup.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	type sqlState interface{ SQLState() string }
	var coder sqlState
	return errors.As(err, &coder) && coder.SQLState() == pgUniqueViolation
}

func (s *PostgresStore) UpsertIssuer(ctx context.Context, rec *models.IssuerRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registry_issuers (address, whitelisted, institution_name, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE
		SET whitelisted = EXCLUDED.whitelisted,
		    institution_name = EXCLUDED.institution_name,
		    updated_at = EXCLUDED.updated_at`,
		rec.Address.String(), rec.Whitelisted, rec.InstitutionName, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindIssuer(ctx context.Context, addr domain.Address) (*models.IssuerRecord, error) {
	var rec models.IssuerRecord
	var address string
	err := s.db.QueryRowContext(ctx, `
		SELECT address, whitelisted, institution_name, updated_at
		FROM registry_issuers WHERE address = $1`,
		addr.String(),
	).Scan(&address, &rec.Whitelisted, &rec.InstitutionName, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find issuer: %w", err)
	}
	rec.Address = domain.Address(address)
	return &rec, nil
}

func (s *PostgresStore) InsertCredential(ctx context.Context, cred *models.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registry_credentials
			(edu_id, issuer, student, student_name, institution_name,
			 credential_type, course_or_program, issued_at, document_hash, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)`,
		cred.EduID.String(), cred.Issuer.String(), cred.Student.String(),
		cred.StudentName, cred.InstitutionName, cred.CredentialType,
		cred.CourseOrProgram, cred.IssuedAt, cred.DocumentHash[:],
	)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCredential(ctx context.Context, id eduid.EduID) (*models.Credential, error) {
	return scanCredential(s.db.QueryRowContext(ctx, `
		SELECT edu_id, issuer, student, student_name, institution_name,
		       credential_type, course_or_program, issued_at, document_hash, revoked
		FROM registry_credentials WHERE edu_id = $1`,
		id.String(),
	))
}

func (s *PostgresStore) Revoke(ctx context.Context, id eduid.EduID, caller domain.Address) (*models.Credential, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin revoke: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cred, err := scanCredential(tx.QueryRowContext(ctx, `
		SELECT edu_id, issuer, student, student_name, institution_name,
		       credential_type, course_or_program, issued_at, document_hash, revoked
		FROM registry_credentials WHERE edu_id = $1 FOR UPDATE`,
		id.String(),
	))
	if err != nil {
		return nil, err
	}
	if cred.Issuer != caller {
		return nil, sentinel.ErrForbidden
	}
	if cred.Revoked {
		return nil, sentinel.ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE registry_credentials SET revoked = TRUE WHERE edu_id = $1`,
		id.String(),
	); err != nil {
		return nil, fmt.Errorf("mark revoked: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit revoke: %w", err)
	}
	cred.Revoked = true
	return cred, nil
}

func (s *PostgresStore) ListStudentCredentials(ctx context.Context, student domain.Address) ([]eduid.EduID, error) {
	return s.listIDs(ctx, `
		SELECT edu_id FROM registry_credentials
		WHERE student = $1 ORDER BY position`,
		student.String())
}

func (s *PostgresStore) ListAllCredentials(ctx context.Context) ([]eduid.EduID, error) {
	return s.listIDs(ctx, `SELECT edu_id FROM registry_credentials ORDER BY position`)
}

func (s *PostgresStore) CountCredentials(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registry_credentials`,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) listIDs(ctx context.Context, query string, args ...any) ([]eduid.EduID, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	ids := []eduid.EduID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan edu_id: %w", err)
		}
		ids = append(ids, eduid.EduID(id))
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var cred models.Credential
	var id, issuer, student string
	var hash []byte
	err := row.Scan(&id, &issuer, &student, &cred.StudentName, &cred.InstitutionName,
		&cred.CredentialType, &cred.CourseOrProgram, &cred.IssuedAt, &hash, &cred.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	cred.EduID = eduid.EduID(id)
	cred.Issuer = domain.Address(issuer)
	cred.Student = domain.Address(student)
	copy(cred.DocumentHash[:], hash)
	return &cred, nil
}
