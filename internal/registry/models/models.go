package models

import (
	"time"

	"credchain/internal/registry/eduid"
	"credchain/pkg/domain"
)

// Credential is the authoritative record bound to one EduID. Everything but
// the Revoked flag is immutable once the record is committed; Revoked is
// monotonic and never reverts to false.
type Credential struct {
	EduID           eduid.EduID         `json:"edu_id"`
	Issuer          domain.Address      `json:"issuer"`
	Student         domain.Address      `json:"student_wallet"`
	StudentName     string              `json:"student_name"`
	InstitutionName string              `json:"institution_name"`
	CredentialType  string              `json:"credential_type"`
	CourseOrProgram string              `json:"course_or_program"`
	IssuedAt        time.Time           `json:"issue_date"`
	DocumentHash    domain.DocumentHash `json:"document_hash"`
	Revoked         bool                `json:"revoked"`
}

// IssuerRecord tracks whitelist state for one issuer account. Records are
// upserted by the administrator and never deleted, only toggled.
type IssuerRecord struct {
	Address         domain.Address `json:"address"`
	Whitelisted     bool           `json:"whitelisted"`
	InstitutionName string         `json:"institution_name"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// KnownCredentialTypes lists the values the issuance UI offers. The type
// field itself stays an open string; unknown values are stored as-is.
var KnownCredentialTypes = []CredentialType{
	{Value: "degree", Label: "Degree"},
	{Value: "12th", Label: "12th Grade"},
	{Value: "10th", Label: "10th Grade"},
	{Value: "certificate", Label: "Certificate"},
	{Value: "diploma", Label: "Diploma"},
	{Value: "tc", Label: "Transfer Certificate"},
}

// CredentialType pairs a stored value with its display label.
type CredentialType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
