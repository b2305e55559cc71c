package models

import "credchain/internal/registry/eduid"

// VerifyCredentialResponse is the non-failing verification envelope: unknown
// identifiers yield exists=false and a nil credential instead of an error, so
// callers can render a not-found view without treating it as exceptional.
type VerifyCredentialResponse struct {
	Exists     bool        `json:"exists"`
	Credential *Credential `json:"credential,omitempty"`
}

// IssueCredentialResponse returns the identifier minted for the new record.
type IssueCredentialResponse struct {
	EduID eduid.EduID `json:"edu_id"`
}

// ValidityResponse reports whether a credential exists and is unrevoked.
type ValidityResponse struct {
	Valid bool `json:"valid"`
}

// CredentialListResponse wraps an ordered identifier listing.
type CredentialListResponse struct {
	EduIDs []eduid.EduID `json:"edu_ids"`
	Count  int           `json:"count"`
}

// CountResponse reports the total number of issued credentials.
type CountResponse struct {
	Count int `json:"count"`
}

// AdminResponse exposes the current administrator address.
type AdminResponse struct {
	Admin string `json:"admin"`
}
