package models

import s "credchain/pkg/string"

// IssueCredentialRequest carries the caller-supplied fields of a new
// credential. The issuance timestamp is stamped server-side at commit time,
// never accepted from the client.
type IssueCredentialRequest struct {
	StudentWallet   string `json:"student_wallet" validate:"required"`
	StudentName     string `json:"student_name" validate:"required,notblank,max=200"`
	InstitutionName string `json:"institution_name" validate:"required,notblank,max=200"`
	CredentialType  string `json:"credential_type" validate:"required,notblank,max=100"`
	CourseOrProgram string `json:"course_or_program" validate:"max=300"`
	DocumentHash    string `json:"document_hash" validate:"required"`
}

// Sanitize trims surrounding whitespace from all free-text fields.
func (r *IssueCredentialRequest) Sanitize() {
	s.TrimStrings(&r.StudentWallet, &r.StudentName, &r.InstitutionName,
		&r.CredentialType, &r.CourseOrProgram, &r.DocumentHash)
}

// SetIssuerStatusRequest toggles whitelist state for one issuer.
type SetIssuerStatusRequest struct {
	Issuer          string `json:"issuer" validate:"required"`
	Whitelisted     bool   `json:"whitelisted"`
	InstitutionName string `json:"institution_name" validate:"max=200"`
}

func (r *SetIssuerStatusRequest) Sanitize() {
	s.TrimStrings(&r.Issuer, &r.InstitutionName)
}

// TransferAdminRequest replaces the administrator atomically.
type TransferAdminRequest struct {
	NewAdmin string `json:"new_admin" validate:"required"`
}

func (r *TransferAdminRequest) Sanitize() {
	s.TrimStrings(&r.NewAdmin)
}
