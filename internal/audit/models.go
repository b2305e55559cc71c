package audit

import (
	"time"

	"credchain/internal/registry/eduid"
	"credchain/pkg/domain"
)

// Event is the append-only audit record emitted after a registry mutation
// commits. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp       time.Time      `json:"timestamp"`
	Action          Action         `json:"action"`
	Actor           domain.Address `json:"actor"`
	EduID           eduid.EduID    `json:"edu_id,omitempty"`
	Issuer          domain.Address `json:"issuer,omitempty"`
	Student         domain.Address `json:"student,omitempty"`
	StudentName     string         `json:"student_name,omitempty"`
	InstitutionName string         `json:"institution_name,omitempty"`
	// Whitelisted is set only on issuer_whitelisted events, so a delisting
	// still serializes as "whitelisted": false.
	Whitelisted *bool `json:"whitelisted,omitempty"`
}

// Action identifies what happened.
type Action string

const (
	ActionIssuerWhitelisted Action = "issuer_whitelisted"
	ActionCredentialIssued  Action = "credential_issued"
	ActionCredentialRevoked Action = "credential_revoked"
	ActionAdminTransferred  Action = "admin_transferred"
)
